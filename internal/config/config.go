package config

import (
	"os"
	"strconv"
	"time"

	"aigate/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig `validate:"required"`
	Server   ServerConfig   `validate:"required"`
	Cache    CacheConfig    `validate:"required"`
	Monitor  MonitorConfig  `validate:"required"`
	Gate     GateConfig
	LogLevel string `validate:"oneof=ERROR WARN INFO DEBUG TRACE"`
}

// DatabaseConfig holds decision log storage settings
type DatabaseConfig struct {
	Driver string `validate:"oneof=sqlite3 postgres"`
	URL    string `validate:"required"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port           string        `validate:"required,numeric"`
	RequestTimeout time.Duration `validate:"gte=0"`
}

// CacheConfig holds request cache windows
type CacheConfig struct {
	TTLFresh       time.Duration `validate:"gte=0"`
	TTLStale       time.Duration `validate:"gtefield=TTLFresh"`
	RateLimitGrace time.Duration `validate:"gte=0"`
}

// MonitorConfig holds production monitor settings
type MonitorConfig struct {
	Capacity     int `validate:"min=1"`
	UserInputMax int `validate:"min=1"`
	PersistToDB  bool
}

// GateConfig holds pipeline settings
type GateConfig struct {
	BatchConcurrency int `validate:"min=1"`
}

var validate = validator.New()

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: loadDatabaseConfig(),
		Server: ServerConfig{
			Port:           getEnvOrDefault("PORT", "8080"),
			RequestTimeout: getEnvDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		},
		Cache:   loadCacheConfig(),
		Monitor: loadMonitorConfig(),
		Gate: GateConfig{
			BatchConcurrency: getEnvIntOrDefault("BATCH_CONCURRENCY", 8),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: "sqlite3", URL: "file:aigate.db?cache=shared"},
		Server:   ServerConfig{Port: "8080", RequestTimeout: 30 * time.Second},
		Cache: CacheConfig{
			TTLFresh:       30 * time.Second,
			TTLStale:       10 * time.Minute,
			RateLimitGrace: 30 * time.Minute,
		},
		Monitor:  MonitorConfig{Capacity: 500, UserInputMax: 200},
		Gate:     GateConfig{BatchConcurrency: 8},
		LogLevel: "INFO",
	}
}

func loadDatabaseConfig() DatabaseConfig {
	def := Default().Database
	return DatabaseConfig{
		Driver: getEnvOrDefault("DB_DRIVER", def.Driver),
		URL:    getEnvOrDefault("DATABASE_URL", def.URL),
	}
}

func loadCacheConfig() CacheConfig {
	def := Default().Cache
	return CacheConfig{
		TTLFresh:       getEnvDurationOrDefault("CACHE_TTL_FRESH", def.TTLFresh),
		TTLStale:       getEnvDurationOrDefault("CACHE_TTL_STALE", def.TTLStale),
		RateLimitGrace: getEnvDurationOrDefault("CACHE_RATE_LIMIT_GRACE", def.RateLimitGrace),
	}
}

func loadMonitorConfig() MonitorConfig {
	def := Default().Monitor
	return MonitorConfig{
		Capacity:     getEnvIntOrDefault("MONITOR_CAPACITY", def.Capacity),
		UserInputMax: getEnvIntOrDefault("MONITOR_INPUT_MAX", def.UserInputMax),
		PersistToDB:  getEnvBoolOrDefault("MONITOR_PERSIST", false),
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
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
