package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port             string
	Env              string
	MongoURI         string
	MongoDatabase    string
	JWTSecret        string
	ImageCDNCloud    string
	ImageCDNKey      string
	ImageCDNSecret   string
	ImageCDNEndpoint string
}

func Load() *Config {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getEnv("MONGO_DB", "chirper"),
		JWTSecret:        getEnv("JWT_SECRET", "supersecretjwtkey"),
		ImageCDNCloud:    getEnv("IMAGE_CDN_CLOUD", ""),
		ImageCDNKey:      getEnv("IMAGE_CDN_KEY", ""),
		ImageCDNSecret:   getEnv("IMAGE_CDN_SECRET", ""),
		ImageCDNEndpoint: getEnv("IMAGE_CDN_ENDPOINT", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
