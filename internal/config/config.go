package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultPort           = "8080"
	DefaultModelPath      = "resources/model.yaml"
	DefaultScalerPath     = "resources/scaler.yaml"
	DefaultHistoryPath    = "history.csv"
	DefaultMaxUploadBytes = 10 << 20
)

// Config is the service configuration, read from the environment.
type Config struct {
	Port           string
	GinMode        string
	ModelPath      string
	ScalerPath     string
	HistoryPath    string
	DatabaseURL    string
	EnableDB       bool
	LogLevel       string
	LogFormat      string
	MaxUploadBytes int64
}

// Load reads the configuration. A .env file in the working directory is
// honoured when present; real environment variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", DefaultPort),
		GinMode:     getEnv("GIN_MODE", "release"),
		ModelPath:   getEnv("MODEL_PATH", DefaultModelPath),
		ScalerPath:  getEnv("SCALER_PATH", DefaultScalerPath),
		HistoryPath: getEnv("HISTORY_PATH", DefaultHistoryPath),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		EnableDB:    strings.EqualFold(getEnv("ENABLE_DB", "false"), "true"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
	}

	maxUpload, err := strconv.ParseInt(getEnv("MAX_UPLOAD_BYTES", strconv.Itoa(DefaultMaxUploadBytes)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
	}
	cfg.MaxUploadBytes = maxUpload

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.EnableDB && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true")
	}
	port, err := strconv.Atoi(c.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("PORT %q is out of range [1, 65535]", c.Port)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.HistoryPath == "" {
		return fmt.Errorf("HISTORY_PATH must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
