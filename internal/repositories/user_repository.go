package repositories

import (
	"context"
	"time"

	"github.com/chirper-app/backend/internal/apperrors"
	"github.com/chirper-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository defines the interface for user data operations.
// Follow edges and likedPosts live as arrays on the user document; the
// paired-array mutations (both sides of a follow edge, likes/likedPosts)
// are issued as separate writes by a single owning call path.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	AddFollow(ctx context.Context, followerID, followingID primitive.ObjectID) error
	RemoveFollow(ctx context.Context, followerID, followingID primitive.ObjectID) error
	AddLikedPost(ctx context.Context, userID, postID primitive.ObjectID) error
	RemoveLikedPost(ctx context.Context, userID, postID primitive.ObjectID) error
	SampleUsers(ctx context.Context, exclude primitive.ObjectID, size int) ([]models.User, error)
}

// MongoUserRepository implements UserRepository for MongoDB.
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// CreateUser inserts a new user document. Edge and like arrays start
// empty, never nil, so membership updates behave uniformly.
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	if user.LikedPosts == nil {
		user.LikedPosts = []primitive.ObjectID{}
	}
	_, err := r.collection.InsertOne(ctx, user)
	return err
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetUserByUsername retrieves a user by username.
func (r *MongoUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// GetUserByEmail retrieves a user by email.
func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// UpdateUser replaces the mutable profile fields of an existing user.
func (r *MongoUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"username":    user.Username,
			"full_name":   user.FullName,
			"email":       user.Email,
			"password":    user.Password,
			"bio":         user.Bio,
			"link":        user.Link,
			"profile_img": user.ProfileImg,
			"cover_img":   user.CoverImg,
			"updated_at":  user.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("user")
	}
	return nil
}

// AddFollow records the edge on both user documents: follower gains a
// following entry, target gains a followers entry. $addToSet keeps the
// sets duplicate-free.
func (r *MongoUserRepository) AddFollow(ctx context.Context, followerID, followingID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": followerID},
		bson.M{"$addToSet": bson.M{"following": followingID}})
	if err != nil {
		return err
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": followingID},
		bson.M{"$addToSet": bson.M{"followers": followerID}})
	return err
}

// RemoveFollow removes the edge from both user documents.
func (r *MongoUserRepository) RemoveFollow(ctx context.Context, followerID, followingID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": followerID},
		bson.M{"$pull": bson.M{"following": followingID}})
	if err != nil {
		return err
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": followingID},
		bson.M{"$pull": bson.M{"followers": followerID}})
	return err
}

// AddLikedPost adds postID to the user's likedPosts set.
func (r *MongoUserRepository) AddLikedPost(ctx context.Context, userID, postID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"liked_posts": postID}})
	return err
}

// RemoveLikedPost removes postID from the user's likedPosts set.
func (r *MongoUserRepository) RemoveLikedPost(ctx context.Context, userID, postID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"liked_posts": postID}})
	return err
}

// SampleUsers returns a uniform random sample of up to size users,
// excluding the given user. Sampling happens before any follow
// filtering, so callers get best-effort suggestions.
func (r *MongoUserRepository) SampleUsers(ctx context.Context, exclude primitive.ObjectID, size int) ([]models.User, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": bson.M{"$ne": exclude}}}},
		{{Key: "$sample", Value: bson.M{"size": size}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
