package config

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB holds the database connection
type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// InitDB initializes and returns the MongoDB connection
func InitDB(cfg *Config) (*DB, error) {
	clientOptions := options.Client().ApplyURI(cfg.MongoURI)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	logrus.Info("Successfully connected to MongoDB!")
	return &DB{
		Client:   client,
		Database: client.Database(cfg.MongoDatabase),
	}, nil
}

// CloseDB closes the database connection
func (db *DB) CloseDB() {
	if db.Client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Client.Disconnect(ctx); err != nil {
		logrus.WithError(err).Error("Error closing MongoDB connection")
	} else {
		logrus.Info("MongoDB connection closed.")
	}
}
