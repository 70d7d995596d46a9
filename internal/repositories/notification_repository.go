package repositories

import (
	"context"
	"time"

	"github.com/chirper-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository defines the interface for notification operations.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	GetByRecipient(ctx context.Context, to primitive.ObjectID) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, to primitive.ObjectID) error
	DeleteAllForRecipient(ctx context.Context, to primitive.ObjectID) error
	CountUnread(ctx context.Context, to primitive.ObjectID) (int64, error)
}

type mongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new Mongo-backed NotificationRepository.
func NewMongoNotificationRepository(db *mongo.Database) NotificationRepository {
	return &mongoNotificationRepository{collection: db.Collection("notifications")}
}

func (r *mongoNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, notification)
	return err
}

// GetByRecipient returns all notifications for a recipient, newest first.
func (r *mongoNotificationRepository) GetByRecipient(ctx context.Context, to primitive.ObjectID) ([]models.Notification, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"to": to}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *mongoNotificationRepository) MarkAllRead(ctx context.Context, to primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx, bson.M{"to": to, "read": false},
		bson.M{"$set": bson.M{"read": true}})
	return err
}

// DeleteAllForRecipient removes every notification for the recipient.
// Deleting with none present is not an error.
func (r *mongoNotificationRepository) DeleteAllForRecipient(ctx context.Context, to primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"to": to})
	return err
}

func (r *mongoNotificationRepository) CountUnread(ctx context.Context, to primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"to": to, "read": false})
}
