package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types. Nothing is emitted on unfollow or unlike, and
// never when the actor owns the content.
const (
	NotificationTypeFollow  = "follow"
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
)

// Notification represents a notification document stored in MongoDB.
// Post is set for like and comment notifications only.
type Notification struct {
	ID        primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	From      primitive.ObjectID  `json:"from" bson:"from"`
	To        primitive.ObjectID  `json:"to" bson:"to"`
	Type      string              `json:"type" bson:"type"`
	Post      *primitive.ObjectID `json:"post,omitempty" bson:"post,omitempty"`
	Read      bool                `json:"read" bson:"read"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
}

// PopulatedNotification is a notification with the actor's identity attached.
type PopulatedNotification struct {
	Notification
	From UserCompact `json:"from"`
}
