package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"rnaseqde/domain/expression"
	"rnaseqde/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	API       APIConfig
	Session   SessionConfig
	Analysis  AnalysisConfig
	Database  DatabaseConfig
	Profiling ProfilingConfig
	LogLevel  string
}

// ServerConfig holds dashboard web server settings
type ServerConfig struct {
	Port           string
	GinMode        string
	MaxUploadBytes int64
}

// APIConfig holds settings for the standalone JSON API
type APIConfig struct {
	Port string
}

// SessionConfig controls dashboard session lifetime
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	CookieName    string
}

// AnalysisConfig holds pipeline settings
type AnalysisConfig struct {
	// Seed of 0 means every run draws a fresh seed.
	Seed          int64
	PValueMethod  expression.PValueMethod
	HeatmapSource string
}

// DatabaseConfig holds run ledger connection settings.
// An empty URL keeps the ledger in memory.
type DatabaseConfig struct {
	URL    string
	Driver string
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Heatmap sources
const (
	HeatmapRandom     = "random"
	HeatmapExpression = "expression"
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	method, err := expression.ParsePValueMethod(getEnvOrDefault("PVALUE_METHOD", string(expression.PValueSimulated)))
	if err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to load analysis configuration")
	}

	config := &Config{
		Server: ServerConfig{
			Port:           getEnvOrDefault("PORT", "8080"),
			GinMode:        getEnvOrDefault("GIN_MODE", "debug"),
			MaxUploadBytes: getEnvInt64OrDefault("MAX_UPLOAD_BYTES", 64<<20),
		},
		API: APIConfig{
			Port: getEnvOrDefault("API_PORT", "8081"),
		},
		Session: SessionConfig{
			TTL:           getEnvDurationOrDefault("SESSION_TTL", 2*time.Hour),
			SweepInterval: getEnvDurationOrDefault("SESSION_SWEEP_INTERVAL", 5*time.Minute),
			CookieName:    getEnvOrDefault("SESSION_COOKIE", "rnaseqde_session"),
		},
		Analysis: AnalysisConfig{
			Seed:          getEnvInt64OrDefault("ANALYSIS_SEED", 0),
			PValueMethod:  method,
			HeatmapSource: strings.ToLower(getEnvOrDefault("HEATMAP_SOURCE", HeatmapRandom)),
		},
		Database: DatabaseConfig{
			URL:    os.Getenv("DATABASE_URL"),
			Driver: strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", "postgres")),
		},
		Profiling: ProfilingConfig{
			Port:    getEnvOrDefault("PPROF_PORT", "6060"),
			Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Server.MaxUploadBytes <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_BYTES must be positive")
	}
	if config.Session.TTL <= 0 {
		return errors.ConfigInvalid("SESSION_TTL must be positive")
	}
	switch config.Analysis.HeatmapSource {
	case HeatmapRandom, HeatmapExpression:
	default:
		return errors.ConfigInvalid("HEATMAP_SOURCE must be random or expression")
	}
	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return errors.ConfigInvalid("DATABASE_DRIVER must be postgres or sqlite")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
