// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mbd888/bidguard/internal/forensiq"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port      string
	Env       string // "development", "staging", "production"
	LogLevel  string
	LogFormat string // "text" or "json"

	// Tracing
	OTLPEndpoint string // empty disables export

	// Forensiq provider
	ForensiqEndpoint    string
	ForensiqKey         string
	RiskThreshold       int
	MaxConnections      int
	BidOnError          bool
	RequestTimeout      time.Duration
	ConnectTimeout      time.Duration
	IdleRetention       time.Duration
	BreakerThreshold    int
	BreakerCooldown     time.Duration
	MaintenanceInterval time.Duration
}

const (
	DefaultPort                = "8080"
	DefaultEnv                 = "development"
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
	DefaultBreakerThreshold    = 5
	DefaultMaintenanceInterval = 5 * time.Minute
)

// Load reads configuration from environment variables and validates it.
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads configuration without validating it, so callers such as the
// CLI can overlay flags first.
func FromEnv() *Config {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	return &Config{
		Port:                getEnv("PORT", DefaultPort),
		Env:                 getEnv("ENV", DefaultEnv),
		LogLevel:            getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:           getEnv("LOG_FORMAT", DefaultLogFormat),
		OTLPEndpoint:        os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ForensiqEndpoint:    getEnv("FORENSIQ_ENDPOINT", forensiq.DefaultEndpoint),
		ForensiqKey:         os.Getenv("FORENSIQ_KEY"), // Required, no default
		RiskThreshold:       int(getEnvInt64("FORENSIQ_THRESHOLD", forensiq.DefaultRiskThreshold)),
		MaxConnections:      int(getEnvInt64("FORENSIQ_CONNECTIONS", forensiq.DefaultMaxConnections)),
		BidOnError:          getEnvBool("FORENSIQ_BID_ON_ERROR", false),
		RequestTimeout:      getEnvDuration("FORENSIQ_TIMEOUT_MS", time.Millisecond, forensiq.DefaultRequestTimeout),
		ConnectTimeout:      getEnvDuration("FORENSIQ_CONNECT_TIMEOUT_MS", time.Millisecond, forensiq.DefaultConnectTimeout),
		IdleRetention:       getEnvDuration("FORENSIQ_IDLE_RETENTION_SECONDS", time.Second, forensiq.DefaultIdleRetention),
		BreakerThreshold:    int(getEnvInt64("FORENSIQ_BREAKER_THRESHOLD", DefaultBreakerThreshold)),
		BreakerCooldown:     getEnvDuration("FORENSIQ_BREAKER_COOLDOWN_SECONDS", time.Second, forensiq.DefaultBreakerCooldown),
		MaintenanceInterval: getEnvDuration("MAINTENANCE_INTERVAL_SECONDS", time.Second, DefaultMaintenanceInterval),
	}
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.ForensiqKey == "" {
		return fmt.Errorf("FORENSIQ_KEY is required")
	}

	u, err := url.Parse(c.ForensiqEndpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("FORENSIQ_ENDPOINT must be an absolute http(s) URL")
	}

	if c.RiskThreshold < 0 {
		return fmt.Errorf("FORENSIQ_THRESHOLD must not be negative")
	}
	if c.MaxConnections <= 0 {
		return fmt.Errorf("FORENSIQ_CONNECTIONS must be positive")
	}
	if c.RequestTimeout <= 0 || c.ConnectTimeout <= 0 {
		return fmt.Errorf("FORENSIQ_TIMEOUT_MS and FORENSIQ_CONNECT_TIMEOUT_MS must be positive")
	}
	if c.BreakerThreshold < 0 {
		return fmt.Errorf("FORENSIQ_BREAKER_THRESHOLD must not be negative")
	}
	if c.MaintenanceInterval <= 0 {
		return fmt.Errorf("MAINTENANCE_INTERVAL_SECONDS must be positive")
	}

	return nil
}

// Provider converts the Forensiq settings for forensiq.New.
func (c *Config) Provider() forensiq.ProviderConfig {
	return forensiq.ProviderConfig{
		Endpoint:         c.ForensiqEndpoint,
		APIKey:           c.ForensiqKey,
		RiskThreshold:    c.RiskThreshold,
		MaxConnections:   c.MaxConnections,
		FailOpenOnError:  c.BidOnError,
		RequestTimeout:   c.RequestTimeout,
		ConnectTimeout:   c.ConnectTimeout,
		IdleRetention:    c.IdleRetention,
		BreakerThreshold: c.BreakerThreshold,
		BreakerCooldown:  c.BreakerCooldown,
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration reads an integer count of unit.
func getEnvDuration(key string, unit, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return time.Duration(i) * unit
		}
	}
	return defaultValue
}
