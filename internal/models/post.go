package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a post document stored in MongoDB. Comments are
// embedded in append order, which is also display order.
type Post struct {
	ID        primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID   `json:"user_id" bson:"user"`
	Text      string               `json:"text,omitempty" bson:"text,omitempty"`
	Img       string               `json:"img,omitempty" bson:"img,omitempty"`
	Likes     []primitive.ObjectID `json:"likes" bson:"likes"`
	Comments  []Comment            `json:"comments" bson:"comments"`
	CreatedAt time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time            `json:"updated_at" bson:"updated_at"`
}

// Comment is a single comment embedded in a post.
type Comment struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user"`
	Text      string             `json:"text" bson:"text"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// CommentByID returns the embedded comment with the given id, or nil.
func (p *Post) CommentByID(id primitive.ObjectID) *Comment {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return &p.Comments[i]
		}
	}
	return nil
}

// LikedBy reports whether userID is in the post's like set.
func (p *Post) LikedBy(userID primitive.ObjectID) bool {
	for _, l := range p.Likes {
		if l == userID {
			return true
		}
	}
	return false
}

// CreatePostRequest defines the request body for creating a new post.
// Either text or img must be present; the handler enforces that since
// neither field is individually required.
type CreatePostRequest struct {
	Text string `json:"text,omitempty" validate:"omitempty,max=500"`
	Img  string `json:"img,omitempty"` // raw payload, uploaded to the image CDN
}

// CreateCommentRequest defines the request body for commenting on a post.
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500"`
}

// PopulatedComment is a comment with its author's identity attached.
type PopulatedComment struct {
	Comment
	User UserCompact `json:"user"`
}

// PopulatedPost is a post with author and comment-author identities
// attached, the shape every read path returns.
type PopulatedPost struct {
	Post
	User     UserCompact        `json:"user"`
	Comments []PopulatedComment `json:"comments"`
}
