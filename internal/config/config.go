// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the database, geodata cache and rendered maps
	Port     int
	LogLevel string
	DevMode  bool

	// S3 shapefile store
	S3Bucket    string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Prefix    string // Key prefix under which state folders live

	// Batch processing
	Workers   int // Bounded worker pool size for unit processing
	RunTTLHrs int // Completed runs older than this are expired by maintenance
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("BOOTHMAP_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:     absDataDir,
		Port:        getEnvAsInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DevMode:     getEnvAsBool("DEV_MODE", false),
		S3Bucket:    getEnv("AWS_BUCKET_NAME", ""),
		S3Region:    getEnv("AWS_REGION", "ap-south-1"),
		S3AccessKey: getEnv("AWS_ACCESS_KEY", ""),
		S3SecretKey: getEnv("AWS_SECRET_KEY", ""),
		S3Prefix:    getEnv("AWS_S3_PREFIX", "shp_files_state_wise/"),
		Workers:     getEnvAsInt("BATCH_WORKERS", runtime.NumCPU()),
		RunTTLHrs:   getEnvAsInt("RUN_TTL_HOURS", 72),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.S3Bucket == "" {
		return fmt.Errorf("AWS_BUCKET_NAME is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be at least 1, got %d", c.Workers)
	}
	return nil
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
