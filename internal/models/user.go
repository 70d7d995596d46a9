package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a user document stored in MongoDB.
type User struct {
	ID         primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Username   string               `json:"username" bson:"username"` // unique
	FullName   string               `json:"full_name" bson:"full_name"`
	Email      string               `json:"email" bson:"email"` // unique
	Password   string               `json:"-" bson:"password"`  // bcrypt hash, never serialized
	Bio        string               `json:"bio,omitempty" bson:"bio,omitempty"`
	Link       string               `json:"link,omitempty" bson:"link,omitempty"`
	ProfileImg string               `json:"profile_img,omitempty" bson:"profile_img,omitempty"`
	CoverImg   string               `json:"cover_img,omitempty" bson:"cover_img,omitempty"`
	Followers  []primitive.ObjectID `json:"followers" bson:"followers"`
	Following  []primitive.ObjectID `json:"following" bson:"following"`
	LikedPosts []primitive.ObjectID `json:"liked_posts" bson:"liked_posts"`
	CreatedAt  time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at" bson:"updated_at"`
}

// UserCompact is the minimal public identity attached to posts,
// comments and notifications.
type UserCompact struct {
	ID         primitive.ObjectID `json:"id" bson:"_id"`
	Username   string             `json:"username" bson:"username"`
	FullName   string             `json:"full_name" bson:"full_name"`
	ProfileImg string             `json:"profile_img,omitempty" bson:"profile_img,omitempty"`
}

// ToCompact projects the user to its public identity.
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		ProfileImg: u.ProfileImg,
	}
}

// IsFollowing reports whether id is in the user's following set.
func (u *User) IsFollowing(id primitive.ObjectID) bool {
	for _, f := range u.Following {
		if f == id {
			return true
		}
	}
	return false
}

// HasLiked reports whether postID is in the user's likedPosts set.
func (u *User) HasLiked(postID primitive.ObjectID) bool {
	for _, p := range u.LikedPosts {
		if p == postID {
			return true
		}
	}
	return false
}

// SignupRequest defines the request body for local registration.
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=2,max=30"`
	FullName string `json:"full_name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest defines the request body for local authentication.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest defines the request body for profile edits. Password
// change requires both current and new password, checked in the handler.
type UpdateUserRequest struct {
	FullName        string `json:"full_name,omitempty" validate:"omitempty,min=2,max=50"`
	Email           string `json:"email,omitempty" validate:"omitempty,email"`
	Username        string `json:"username,omitempty" validate:"omitempty,min=2,max=30"`
	Bio             string `json:"bio,omitempty" validate:"omitempty,max=200"`
	Link            string `json:"link,omitempty" validate:"omitempty,max=200"`
	CurrentPassword string `json:"current_password,omitempty"`
	NewPassword     string `json:"new_password,omitempty"`
	ProfileImg      string `json:"profile_img,omitempty"` // raw payload, uploaded to the image CDN
	CoverImg        string `json:"cover_img,omitempty"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims.
type JwtCustomClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
