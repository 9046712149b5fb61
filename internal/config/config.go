package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	DatabasePath      string `json:"database_path"`
	APIPort           string `json:"api_port"`
	LogLevel          string `json:"log_level"`
	LogFile           string `json:"log_file"` // empty means stderr only
	DataDir           string `json:"data_dir"`
	JWTSecret         string `json:"jwt_secret"`
	AdminPasswordHash string `json:"admin_password_hash"` // bcrypt hash for the single admin login
	CORSOrigins       string `json:"cors_origins"`

	// Mail provider
	CredentialsPath string `json:"credentials_path"` // authorized-user token file

	// AI completion provider
	AIProvider string `json:"ai_provider"`
	AIAPIKey   string `json:"ai_api_key"`
	AIModel    string `json:"ai_model"`
	AIBaseURL  string `json:"ai_base_url"`

	// Ingestion
	PollIntervalSeconds int `json:"poll_interval_seconds"`
	PollMaxResults      int `json:"poll_max_results"`
	SendDelaySeconds    int `json:"send_delay_seconds"`
}

// Default configuration values
const (
	DefaultDatabasePath        = "data/replied_emails.db"
	DefaultAPIPort             = "8080"
	DefaultLogLevel            = "INFO"
	DefaultDataDir             = "data"
	DefaultJWTSecret           = "gmail-automation-default-secret-change-in-production"
	DefaultCORSOrigins         = "*"
	DefaultCredentialsPath     = "token.json"
	DefaultAIProvider          = "gemini"
	DefaultAIModel             = "gemini-1.5-flash"
	DefaultPollIntervalSeconds = 120
	DefaultPollMaxResults      = 10
	DefaultSendDelaySeconds    = 10
)

// Load loads configuration from environment variables and config file.
// Priority: environment variables > config file > defaults. A .env file in
// the working directory is honored, matching the original deployment setup.
func Load() (*Config, error) {
	// Optional; missing .env is fine
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath:        DefaultDatabasePath,
		APIPort:             DefaultAPIPort,
		LogLevel:            DefaultLogLevel,
		DataDir:             DefaultDataDir,
		JWTSecret:           DefaultJWTSecret,
		CORSOrigins:         DefaultCORSOrigins,
		CredentialsPath:     DefaultCredentialsPath,
		AIProvider:          DefaultAIProvider,
		AIModel:             DefaultAIModel,
		PollIntervalSeconds: DefaultPollIntervalSeconds,
		PollMaxResults:      DefaultPollMaxResults,
		SendDelaySeconds:    DefaultSendDelaySeconds,
	}

	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional
	}

	cfg.loadFromEnv()

	return cfg, nil
}

// loadFromFile loads configuration from config.json
func (c *Config) loadFromFile() error {
	configPaths := []string{
		"config.json",
		filepath.Join(c.DataDir, "config.json"),
	}

	for _, path := range configPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := json.Unmarshal(data, c); err != nil {
			return err
		}
		return nil
	}

	return nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if val := os.Getenv("DATABASE_PATH"); val != "" {
		c.DatabasePath = val
	}
	if val := os.Getenv("API_PORT"); val != "" {
		c.APIPort = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("LOG_FILE"); val != "" {
		c.LogFile = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWTSecret = val
	}
	if val := os.Getenv("ADMIN_PASSWORD_HASH"); val != "" {
		c.AdminPasswordHash = val
	}
	if val := os.Getenv("CORS_ORIGINS"); val != "" {
		c.CORSOrigins = val
	}
	if val := os.Getenv("GOOGLE_CREDENTIALS_PATH"); val != "" {
		c.CredentialsPath = val
	}
	if val := os.Getenv("AI_PROVIDER"); val != "" {
		c.AIProvider = val
	}
	if val := os.Getenv("GOOGLE_API_KEY"); val != "" {
		c.AIAPIKey = val
	}
	if val := os.Getenv("AI_API_KEY"); val != "" {
		c.AIAPIKey = val
	}
	if val := os.Getenv("AI_MODEL"); val != "" {
		c.AIModel = val
	}
	if val := os.Getenv("AI_BASE_URL"); val != "" {
		c.AIBaseURL = val
	}
	if val, err := strconv.Atoi(os.Getenv("POLL_INTERVAL_SECONDS")); err == nil && val > 0 {
		c.PollIntervalSeconds = val
	}
	if val, err := strconv.Atoi(os.Getenv("POLL_MAX_RESULTS")); err == nil && val > 0 {
		c.PollMaxResults = val
	}
	if val, err := strconv.Atoi(os.Getenv("SEND_DELAY_SECONDS")); err == nil && val >= 0 {
		c.SendDelaySeconds = val
	}
}

// Save saves the current configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
