package main

import (
	"log"
	"os"

	"github.com/Rao-Faizan/my-gamil-automation/internal/api"
	"github.com/Rao-Faizan/my-gamil-automation/internal/cli"
	"github.com/Rao-Faizan/my-gamil-automation/internal/config"
	"github.com/Rao-Faizan/my-gamil-automation/internal/database"
	"github.com/Rao-Faizan/my-gamil-automation/internal/logger"
	"github.com/Rao-Faizan/my-gamil-automation/internal/mailapi"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Initialize database
	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Check if running CLI command
	if len(os.Args) > 1 {
		cli.Execute(db, cfg)
		return
	}

	zapLogger, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// The mail provider is required for the server: ingestion and sending both
	// go through it
	provider, err := mailapi.NewClient(cfg.CredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize mail client (set GOOGLE_CREDENTIALS_PATH): %v", err)
	}

	// Start API server
	router, authManager, err := api.SetupRouter(db, cfg, provider, zapLogger)
	if err != nil {
		log.Fatalf("Failed to setup router: %v", err)
	}

	zapLogger.Info("starting server",
		zap.String("port", cfg.APIPort),
		zap.String("data_dir", cfg.DataDir),
		zap.String("database_path", cfg.DatabasePath),
		zap.String("ai_provider", cfg.AIProvider))
	log.Printf("API Key: %s", authManager.APIKeyManager.GetCurrentKey())

	if err := router.Run(":" + cfg.APIPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
