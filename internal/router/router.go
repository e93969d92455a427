package router

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/tikgram/backend/internal/handlers"
	"github.com/tikgram/backend/internal/middleware"
	"github.com/tikgram/backend/internal/repositories"
	"github.com/tikgram/backend/internal/services"
	"github.com/tikgram/backend/pkg/config"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, cfg *config.Config) {
	e.Use(eMiddleware.Logger())
	e.Use(eMiddleware.Recover())
	if cfg.CORSOrigin != "" {
		e.Use(eMiddleware.CORSWithConfig(eMiddleware.CORSConfig{
			AllowOrigins:     []string{cfg.CORSOrigin},
			AllowCredentials: true,
		}))
	} else {
		e.Use(eMiddleware.CORS())
	}
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, db *mongo.Database, cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := repositories.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to ensure MongoDB indexes: %v", err)
	}
	log.Println("MongoDB indexes ensured.")

	// Health check - always accessible
	e.GET("/", handlers.HealthCheck)

	// --- Initialize repositories ---
	userRepo := repositories.NewMongoUserRepository(db)
	postRepo := repositories.NewMongoPostRepository(db)
	viewRepo := repositories.NewMongoPostViewRepository(db)
	notificationRepo := repositories.NewMongoNotificationRepository(db)

	// --- Initialize services ---
	// Only follows notify; interactions on posts stay silent.
	interactionSvc := services.NewInteractionService(postRepo, userRepo, viewRepo, notificationRepo, services.NotifyPolicy{})
	followSvc := services.NewFollowService(userRepo, notificationRepo)
	notificationSvc := services.NewNotificationService(notificationRepo, userRepo, postRepo)

	auth := middleware.Auth(cfg.JWTSecret)
	authOptional := middleware.AuthOptional(cfg.JWTSecret)

	api := e.Group("/api")

	// Auth routes
	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	authHandler.RegisterAuthRoutes(api.Group("/auth"), auth)
	log.Println("Auth routes configured.")

	// Post routes (feed, interactions, views)
	postHandler := handlers.NewPostHandler(postRepo, userRepo, interactionSvc)
	postHandler.RegisterPostRoutes(api.Group("/posts"), auth, authOptional)
	log.Println("Post routes configured.")

	// User routes (profiles, follow toggle)
	userHandler := handlers.NewUserHandler(userRepo, postRepo, followSvc)
	userHandler.RegisterUserRoutes(api.Group("/users"), auth, authOptional)
	log.Println("User routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationSvc)
	notificationHandler.RegisterNotificationRoutes(api.Group("/notifications"), auth)
	log.Println("Notification routes configured.")

	log.Println("All routes configured.")
}
