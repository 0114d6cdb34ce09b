package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Storage drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the daemon configuration
type Config struct {
	// Server
	Port     int
	Bind     string
	Debug    bool
	LogLevel string

	// Storage
	StorageDriver string
	DatabasePath  string
	DatabaseURL   string

	// RabbitMQ; empty disables record events
	RabbitMQURL string

	// Session
	SessionMaxAge int // seconds

	// HTTP
	RequestTimeout int // seconds
	RateLimitRPS   int
	RateLimitBurst int
}

// Load reads configuration from environment variables over the defaults
func Load() (*Config, error) {
	return LoadWithLocal(DefaultLocalConfig())
}

// LoadWithLocal reads configuration from environment variables, falling
// back to the values of a local config file.
func LoadWithLocal(local *LocalConfig) (*Config, error) {
	if local == nil {
		local = DefaultLocalConfig()
	}

	dbPath := local.Storage.Path
	if dbPath == "" {
		dir, err := PokerlogDir()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(dir, "data", "pokerlog.db")
	}

	cfg := &Config{
		Port:           getEnvInt("PORT", local.Daemon.Port),
		Bind:           getEnv("BIND", local.Daemon.Bind),
		Debug:          getEnvBool("DEBUG", false),
		LogLevel:       getEnv("LOG_LEVEL", local.Daemon.LogLevel),
		StorageDriver:  strings.ToLower(getEnv("STORAGE_DRIVER", local.Storage.Driver)),
		DatabasePath:   getEnv("DATABASE_PATH", dbPath),
		DatabaseURL:    getEnv("DATABASE_URL", local.Storage.URL),
		RabbitMQURL:    getEnv("RABBITMQ_URL", local.Events.AMQPURL),
		SessionMaxAge:  getEnvInt("SESSION_MAX_AGE", 86400*7), // 7 days
		RequestTimeout: getEnvInt("REQUEST_TIMEOUT", 30),
		RateLimitRPS:   getEnvInt("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 40),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail at startup
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH must be set for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE must be positive")
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// SessionTTL returns the login session lifetime
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionMaxAge) * time.Second
}

// Timeout returns the per-request timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
