package repositories

import (
	"context"
	"time"

	"github.com/chirper-app/backend/internal/apperrors"
	"github.com/chirper-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	GetAllPosts(ctx context.Context) ([]models.Post, error)
	GetPostsByUserID(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error)
	GetPostsByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]models.Post, error)
	GetPostsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Post, error)
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	AddLike(ctx context.Context, postID, userID primitive.ObjectID) error
	RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) error
	PushComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) error
	PullComment(ctx context.Context, postID, commentID primitive.ObjectID) error
}

// MongoPostRepository implements PostRepository for MongoDB.
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository.
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

// CreatePost inserts a new post document with empty like and comment arrays.
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID.
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("post")
		}
		return nil, err
	}
	return &post, nil
}

func (r *MongoPostRepository) find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Post, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetAllPosts retrieves every post, newest first.
func (r *MongoPostRepository) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	return r.find(ctx, bson.D{}, newestFirst)
}

// GetPostsByUserID retrieves posts authored by a user, newest first.
func (r *MongoPostRepository) GetPostsByUserID(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	return r.find(ctx, bson.M{"user": userID}, newestFirst)
}

// GetPostsByUserIDs retrieves posts authored by any of the users, newest
// first. An empty id list yields an empty feed.
func (r *MongoPostRepository) GetPostsByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]models.Post, error) {
	if len(userIDs) == 0 {
		return []models.Post{}, nil
	}
	return r.find(ctx, bson.M{"user": bson.M{"$in": userIDs}}, newestFirst)
}

// GetPostsByIDs retrieves the posts with the given ids in the store's
// natural retrieval order.
func (r *MongoPostRepository) GetPostsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// DeletePost removes a post document.
func (r *MongoPostRepository) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("post")
	}
	return nil
}

// AddLike adds userID to the post's like set. $addToSet keeps the set
// duplicate-free even if the same like is replayed.
func (r *MongoPostRepository) AddLike(ctx context.Context, postID, userID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": postID},
		bson.M{"$addToSet": bson.M{"likes": userID}})
	return err
}

// RemoveLike removes userID from the post's like set.
func (r *MongoPostRepository) RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": postID},
		bson.M{"$pull": bson.M{"likes": userID}})
	return err
}

// PushComment appends a comment to the end of the post's comment array.
func (r *MongoPostRepository) PushComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": postID},
		bson.M{"$push": bson.M{"comments": comment}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("post")
	}
	return nil
}

// PullComment removes the comment with the given id; the remaining
// comments keep their order.
func (r *MongoPostRepository) PullComment(ctx context.Context, postID, commentID primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": postID},
		bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("post")
	}
	return nil
}
