package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/atelierhaus/portfolio-backend/internal/config"
	"github.com/atelierhaus/portfolio-backend/internal/handlers"
	"github.com/atelierhaus/portfolio-backend/internal/middleware"
	"github.com/atelierhaus/portfolio-backend/internal/models"
	"github.com/atelierhaus/portfolio-backend/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.New()

	// Initialize database
	db, err := models.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Run migrations
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Redis
	redisClient := models.InitRedis(cfg)
	defer redisClient.Close()

	// Initialize services
	validator := services.NewUploadValidator(cfg)
	guard := services.NewCapacityGuard()
	policy := services.NewAccessPolicy()
	tokenService := services.NewTokenService(db, cfg)
	assetService := services.NewAssetService(db, cfg, validator, guard, tokenService, policy)

	// Setup Gin router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := middleware.NewHTTPMetrics()

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RateLimiter(redisClient, cfg))
	router.Use(metrics.Middleware())
	router.Use(middleware.AdminAccess(cfg))

	// Initialize handlers
	imageHandler := handlers.NewImageHandler(assetService, tokenService, cfg)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", metrics.Handler())

	// Setup routes
	api := router.Group("/api/v1")
	{
		// Catch-all OPTIONS handler for CORS preflight requests
		api.OPTIONS("/*path", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

		images := api.Group("/images")
		{
			images.GET("", imageHandler.GetAllImages)
			images.GET("/:id", imageHandler.GetImage)
			images.GET("/:id/data", imageHandler.GetImageData)
			images.PUT("/:id", imageHandler.UpdateImage)
			images.DELETE("/:id", imageHandler.DeleteImage)
			images.POST("/:id/regenerate-token", imageHandler.RegenerateAccessToken)
			images.POST("/:id/revoke-access", imageHandler.RevokeAccess)

			// Upload routes with rate limiting
			uploadGroup := images.Group("")
			uploadGroup.Use(middleware.UploadRateLimit(redisClient, cfg))
			{
				uploadGroup.POST("", imageHandler.CreateImage)
				uploadGroup.PUT("/:id/file", imageHandler.ReplaceImageFile)
			}
		}

		projects := api.Group("/projects")
		{
			projects.GET("/:id", imageHandler.GetProject)
			projects.GET("/:id/files", imageHandler.GetProjectFiles)
		}
	}

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  120 * time.Second, // large uploads
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
