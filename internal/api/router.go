package api

import (
	"strings"
	"time"

	"github.com/Rao-Faizan/my-gamil-automation/internal/api/handlers"
	"github.com/Rao-Faizan/my-gamil-automation/internal/api/middleware"
	"github.com/Rao-Faizan/my-gamil-automation/internal/config"
	"github.com/Rao-Faizan/my-gamil-automation/internal/genai"
	"github.com/Rao-Faizan/my-gamil-automation/internal/mailapi"
	"github.com/Rao-Faizan/my-gamil-automation/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRouter initializes the Gin router with all routes configured and starts
// the background poll scheduler
func SetupRouter(db *gorm.DB, cfg *config.Config, provider mailapi.Provider, logger *zap.Logger) (*gin.Engine, *middleware.AuthManager, error) {
	router := gin.New()
	router.Use(gin.Recovery())

	origins := strings.Split(cfg.CORSOrigins, ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-API-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authManager, err := middleware.NewAuthManager(cfg.DataDir, cfg.JWTSecret, middleware.DefaultTokenExpiry)
	if err != nil {
		return nil, nil, err
	}

	// Services
	logService := services.NewLogServiceWithLevel(db, cfg.LogLevel)
	store := services.NewReplyStore(db)

	aiClient := genai.NewClient()
	aiClient.ConfigureWithBaseURL(cfg.AIProvider, cfg.AIAPIKey, cfg.AIModel, cfg.AIBaseURL)

	ingestService := services.NewIngestService(store, provider, logService, logger)
	lifecycleService := services.NewLifecycleService(store, provider, aiClient, logService, logger)
	lifecycleService.SetSendDelay(time.Duration(cfg.SendDelaySeconds) * time.Second)
	importService := services.NewImportService(store, logService, logger)

	// Background inbox polling
	pollScheduler := services.NewPollScheduler(ingestService, logger,
		time.Duration(cfg.PollIntervalSeconds)*time.Second, cfg.PollMaxResults)
	pollScheduler.Start()

	// Handlers
	authHandler := handlers.NewAuthHandler(authManager.JWTManager, cfg.AdminPasswordHash, logService)
	replyHandler := handlers.NewReplyHandler(store, lifecycleService, ingestService, logService)
	importHandler := handlers.NewImportHandler(importService)

	// Health check endpoint (no auth required)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.Use(middleware.APIKeyMiddleware(authManager.APIKeyManager))
		api.Use(requestLogMiddleware(logService))

		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
		}

		protected := api.Group("")
		protected.Use(middleware.JWTMiddleware(authManager.JWTManager))
		{
			replies := protected.Group("/replies")
			{
				replies.GET("", replyHandler.ListReplies)
				replies.DELETE("", replyHandler.DeleteReplies)
				replies.POST("/bulk-send", replyHandler.BulkSend)
				replies.POST("/bulk-delete", replyHandler.BulkDelete)
				replies.POST("/import", importHandler.ImportCSV)
				replies.GET("/:message_id", replyHandler.GetReply)
				replies.DELETE("/:message_id", replyHandler.DeleteReply)
				replies.POST("/:message_id/generate", replyHandler.GenerateReply)
				replies.POST("/:message_id/send", replyHandler.SendReply)
			}

			protected.POST("/ingest", replyHandler.Ingest)
			protected.GET("/logs", replyHandler.ListLogs)
		}
	}

	return router, authManager, nil
}

// requestLogMiddleware writes API requests to the audit log
func requestLogMiddleware(logService *services.LogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logService.LogAPIRequest(
			c.Request.Method,
			c.FullPath(),
			c.Writer.Status(),
			time.Since(start).Milliseconds(),
			c.ClientIP(),
		)
	}
}
