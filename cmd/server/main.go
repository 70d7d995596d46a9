package main

import (
	"github.com/chirper-app/backend/internal/apperrors"
	"github.com/chirper-app/backend/internal/imagestore"
	"github.com/chirper-app/backend/internal/router"
	"github.com/chirper-app/backend/internal/validators"
	"github.com/chirper-app/backend/pkg/config"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connection
	db, err := config.InitDB(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB() // Ensure the connection is closed when main exits

	// Hosted image CDN client
	imgStore := imagestore.NewClient(imagestore.Config{
		BaseURL:   cfg.ImageCDNEndpoint,
		CloudName: cfg.ImageCDNCloud,
		APIKey:    cfg.ImageCDNKey,
		APISecret: cfg.ImageCDNSecret,
	})

	// Create Echo instance
	e := echo.New()
	e.HTTPErrorHandler = apperrors.HTTPErrorHandler

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, db.Database, imgStore, cfg.JWTSecret)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
