// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir            string // Base directory for all databases (always absolute)
	Port               int
	DevMode            bool
	LogLevel           string
	ProfilesServiceURL string // External user-profile service (reputation source)

	Scoring   ScoringConfig
	RateLimit RateLimitConfig
	Backup    *BackupConfig
}

// ScoringConfig holds the tunable thresholds of the scoring engine.
// The dimension weights and weight brackets are a fixed contract and are
// intentionally NOT configurable (see the scoring module).
type ScoringConfig struct {
	HistoryEpsilon  float64 // Minimum overall-score change recorded to history
	NotifyThreshold float64 // Minimum overall-score change that notifies followers
}

// RateLimitConfig holds write-endpoint rate limiting settings
type RateLimitConfig struct {
	WritesPerMinute int // Per-contributor token bucket refill rate
	Burst           int // Token bucket capacity
}

// BackupConfig holds cloud backup settings for an S3-compatible store.
// Nil when cloud backups are disabled.
type BackupConfig struct {
	Endpoint      string // S3-compatible endpoint URL (e.g., Cloudflare R2)
	Bucket        string
	AccessKey     string
	SecretKey     string
	RetentionDays int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory:
	// 1. CREDENCE_DATA_DIR environment variable
	// 2. Default to ./data
	// Always resolved to an absolute path, created if missing.
	dataDir := getEnv("CREDENCE_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		Port:               getEnvAsInt("PORT", 8010),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ProfilesServiceURL: getEnv("PROFILES_SERVICE_URL", "http://localhost:9010"),
		Scoring: ScoringConfig{
			HistoryEpsilon:  getEnvAsFloat("SCORE_HISTORY_EPSILON", 0.1),
			NotifyThreshold: getEnvAsFloat("SCORE_NOTIFY_THRESHOLD", 0.5),
		},
		RateLimit: RateLimitConfig{
			WritesPerMinute: getEnvAsInt("RATE_LIMIT_WRITES_PER_MINUTE", 30),
			Burst:           getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Backup: loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and sane
func (c *Config) Validate() error {
	if c.Scoring.HistoryEpsilon < 0 {
		return fmt.Errorf("SCORE_HISTORY_EPSILON must be non-negative, got %v", c.Scoring.HistoryEpsilon)
	}
	if c.Scoring.NotifyThreshold < 0 {
		return fmt.Errorf("SCORE_NOTIFY_THRESHOLD must be non-negative, got %v", c.Scoring.NotifyThreshold)
	}
	if c.RateLimit.WritesPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_WRITES_PER_MINUTE must be positive, got %d", c.RateLimit.WritesPerMinute)
	}
	return nil
}

// loadBackupConfig loads S3 backup settings, returning nil when disabled.
// Cloud backups require endpoint + bucket + credentials; anything less
// disables the feature rather than failing startup.
func loadBackupConfig() *BackupConfig {
	endpoint := getEnv("BACKUP_S3_ENDPOINT", "")
	bucket := getEnv("BACKUP_S3_BUCKET", "")
	accessKey := getEnv("BACKUP_S3_ACCESS_KEY", "")
	secretKey := getEnv("BACKUP_S3_SECRET_KEY", "")

	if endpoint == "" || bucket == "" || accessKey == "" || secretKey == "" {
		return nil
	}

	return &BackupConfig{
		Endpoint:      endpoint,
		Bucket:        bucket,
		AccessKey:     accessKey,
		SecretKey:     secretKey,
		RetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
