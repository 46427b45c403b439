// Package config provides configuration management for the POP3 server.
package config

import (
	"errors"
	"fmt"
	"time"
)

// FileConfig is the top-level wrapper for the configuration file.
type FileConfig struct {
	Pop3d Config `toml:"pop3d"`
}

// Config holds the pop3d server configuration.
type Config struct {
	Hostname    string         `toml:"hostname"`
	Banner      string         `toml:"banner"`
	LogLevel    string         `toml:"log_level"`
	Listeners   []string       `toml:"listeners"`
	Maildirs    string         `toml:"maildirs"`
	Transformer string         `toml:"transformer"`
	BufferSize  int            `toml:"buffer_size"`
	Timeouts    TimeoutsConfig `toml:"timeouts"`
	Limits      LimitsConfig   `toml:"limits"`
	Metrics     MetricsConfig  `toml:"metrics"`
}

// TimeoutsConfig defines timeout durations, expressed as parseable
// time.Duration strings ("10m", "30s").
type TimeoutsConfig struct {
	Connection string `toml:"connection"`
	Command    string `toml:"command"`
}

// LimitsConfig defines resource limits for the server.
type LimitsConfig struct {
	MaxConnections int `toml:"max_connections"`
}

// MetricsConfig holds configuration for the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
	Path    string `toml:"path"`
}

// MinBufferSize and MaxBufferSize bound Config.BufferSize per spec.md §3:
// "512 <= B < 2^32".
const (
	MinBufferSize = 512
	MaxBufferSize = 1 << 32
)

// DefaultBanner is used when no banner text is configured.
const DefaultBanner = "pop3d ready"

// Default returns a Config with sensible default values.
func Default() Config {
	return Config{
		Hostname:   "localhost",
		Banner:     DefaultBanner,
		LogLevel:   "info",
		Listeners:  []string{":110"},
		BufferSize: 8192,
		Timeouts: TimeoutsConfig{
			Connection: "10m",
			Command:    "1m",
		},
		Limits: LimitsConfig{
			MaxConnections: 100,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9101",
			Path:    "/metrics",
		},
	}
}

// Validate checks that the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.Hostname == "" {
		return errors.New("hostname is required")
	}

	if len(c.Listeners) == 0 {
		return errors.New("at least one listener is required")
	}
	for i, addr := range c.Listeners {
		if addr == "" {
			return fmt.Errorf("listener %d: address is required", i)
		}
	}

	if c.Maildirs == "" {
		return errors.New("maildirs root is required")
	}

	if c.BufferSize < MinBufferSize || c.BufferSize >= MaxBufferSize {
		return fmt.Errorf("buffer_size must be in [%d, %d), got %d", MinBufferSize, MaxBufferSize, c.BufferSize)
	}

	if c.Limits.MaxConnections <= 0 {
		return errors.New("max_connections must be positive")
	}

	if c.Timeouts.Connection != "" {
		if _, err := time.ParseDuration(c.Timeouts.Connection); err != nil {
			return fmt.Errorf("invalid connection timeout: %w", err)
		}
	}

	if c.Timeouts.Command != "" {
		if _, err := time.ParseDuration(c.Timeouts.Command); err != nil {
			return fmt.Errorf("invalid command timeout: %w", err)
		}
	}

	if c.Metrics.Enabled {
		if c.Metrics.Address == "" {
			return errors.New("metrics address is required when metrics are enabled")
		}
		if c.Metrics.Path == "" {
			return errors.New("metrics path is required when metrics are enabled")
		}
	}

	return nil
}

// ConnectionTimeout returns the connection timeout as a time.Duration.
// Returns 10 minutes if not configured or invalid.
func (c *TimeoutsConfig) ConnectionTimeout() time.Duration {
	if c.Connection == "" {
		return 10 * time.Minute
	}
	d, err := time.ParseDuration(c.Connection)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// CommandTimeout returns the command timeout as a time.Duration.
// Returns 1 minute if not configured or invalid.
func (c *TimeoutsConfig) CommandTimeout() time.Duration {
	if c.Command == "" {
		return 1 * time.Minute
	}
	d, err := time.ParseDuration(c.Command)
	if err != nil {
		return 1 * time.Minute
	}
	return d
}
