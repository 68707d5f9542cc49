// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	Upstream    UpstreamConfig
	Audit       AuditConfig
	Filters     FilterDefaults
}

// UpstreamConfig describes the external analytics service the gateway reads.
type UpstreamConfig struct {
	BaseURL      string
	Timeout      time.Duration // per data fetch
	QueryTimeout time.Duration // per chat question; SQL generation is slow
}

// AuditConfig controls the chat exchange audit store.
type AuditConfig struct {
	Enabled   bool
	DBPath    string
	QueueSize int
	Retention time.Duration
}

// FilterDefaults are the filter selections pages start with.
type FilterDefaults struct {
	FactoryID string
	LineID    string
	DCID      string
	StoreID   string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("AUDIT_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		Upstream: UpstreamConfig{
			BaseURL:      getEnv("UPSTREAM_URL", "http://localhost:5000"),
			Timeout:      getEnvDuration("UPSTREAM_TIMEOUT", 15*time.Second),
			QueryTimeout: getEnvDuration("QUERY_TIMEOUT", 90*time.Second),
		},
		Audit: AuditConfig{
			Enabled:   getEnvBool("AUDIT_ENABLED", true),
			DBPath:    getEnv("AUDIT_DB_PATH", "./data/audit.db"),
			QueueSize: queueSize,
			Retention: getEnvDuration("AUDIT_RETENTION", 30*24*time.Hour),
		},
		Filters: FilterDefaults{
			FactoryID: getEnv("DEFAULT_FACTORY_ID", ""),
			LineID:    getEnv("DEFAULT_LINE_ID", ""),
			DCID:      getEnv("DEFAULT_DC_ID", "DC_JEDDAH"),
			StoreID:   getEnv("DEFAULT_STORE_ID", "ST_DUBAI_HYPER_01"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("UPSTREAM_URL cannot be empty")
	}
	if !strings.HasPrefix(c.Upstream.BaseURL, "http://") && !strings.HasPrefix(c.Upstream.BaseURL, "https://") {
		return fmt.Errorf("UPSTREAM_URL must be an http(s) URL, got %q", c.Upstream.BaseURL)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be > 0")
	}
	if c.Upstream.QueryTimeout <= 0 {
		return fmt.Errorf("QUERY_TIMEOUT must be > 0")
	}
	if c.Audit.Enabled && c.Audit.DBPath == "" {
		return fmt.Errorf("AUDIT_DB_PATH cannot be empty when auditing is enabled")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
