package config

import (
	"fmt"
	"time"
)

// Config holds server configuration
type Config struct {
	// Server settings
	Port int
	Host string

	// Definition settings
	DefinitionsDirectory string
	SchemaDirectory      string

	// Metrics adapter settings
	AdapterType     string // "insights" or "synthetic"
	InsightsURL     string
	SyntheticFixDir string

	// Storage settings
	DatabasePath string

	// Operational settings
	AlertHistoryDays        int
	GracefulShutdownTimeout time.Duration
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	if c.DefinitionsDirectory == "" {
		return fmt.Errorf("definitions directory is required")
	}

	if c.AdapterType != "insights" && c.AdapterType != "synthetic" {
		return fmt.Errorf("adapter type must be 'insights' or 'synthetic'")
	}

	if c.AdapterType == "insights" && c.InsightsURL == "" {
		return fmt.Errorf("insights URL required when adapter type is 'insights'")
	}

	if c.AlertHistoryDays <= 0 {
		return fmt.Errorf("alert history days must be positive")
	}

	return nil
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Port:                    8080,
		Host:                    "0.0.0.0",
		SchemaDirectory:         "schemas",
		AdapterType:             "synthetic",
		AlertHistoryDays:        28,
		GracefulShutdownTimeout: 30 * time.Second,
	}
}
