package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Hostname != "localhost" {
		t.Errorf("expected hostname 'localhost', got %q", cfg.Hostname)
	}

	if cfg.Banner != DefaultBanner {
		t.Errorf("expected banner %q, got %q", DefaultBanner, cfg.Banner)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("expected log_level 'info', got %q", cfg.LogLevel)
	}

	if len(cfg.Listeners) != 1 {
		t.Fatalf("expected 1 listener, got %d", len(cfg.Listeners))
	}

	if cfg.Listeners[0] != ":110" {
		t.Errorf("expected listener address ':110', got %q", cfg.Listeners[0])
	}

	if cfg.BufferSize != 8192 {
		t.Errorf("expected buffer_size 8192, got %d", cfg.BufferSize)
	}

	if cfg.Limits.MaxConnections != 100 {
		t.Errorf("expected max_connections 100, got %d", cfg.Limits.MaxConnections)
	}

	if cfg.Timeouts.Connection != "10m" {
		t.Errorf("expected connection timeout '10m', got %q", cfg.Timeouts.Connection)
	}

	if cfg.Timeouts.Command != "1m" {
		t.Errorf("expected command timeout '1m', got %q", cfg.Timeouts.Command)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name: "valid default config",
			modify: func(c *Config) {
				c.Maildirs = "/var/mail"
			},
			wantErr: false,
		},
		{
			name:    "empty hostname",
			modify:  func(c *Config) { c.Hostname = ""; c.Maildirs = "/var/mail" },
			wantErr: true,
		},
		{
			name:    "no listeners",
			modify:  func(c *Config) { c.Listeners = nil; c.Maildirs = "/var/mail" },
			wantErr: true,
		},
		{
			name: "listener with empty address",
			modify: func(c *Config) {
				c.Listeners = []string{""}
				c.Maildirs = "/var/mail"
			},
			wantErr: true,
		},
		{
			name:    "missing maildirs root",
			modify:  func(c *Config) { c.Maildirs = "" },
			wantErr: true,
		},
		{
			name:    "zero max_connections",
			modify:  func(c *Config) { c.Maildirs = "/var/mail"; c.Limits.MaxConnections = 0 },
			wantErr: true,
		},
		{
			name:    "negative max_connections",
			modify:  func(c *Config) { c.Maildirs = "/var/mail"; c.Limits.MaxConnections = -1 },
			wantErr: true,
		},
		{
			name:    "invalid connection timeout",
			modify:  func(c *Config) { c.Maildirs = "/var/mail"; c.Timeouts.Connection = "invalid" },
			wantErr: true,
		},
		{
			name:    "invalid command timeout",
			modify:  func(c *Config) { c.Maildirs = "/var/mail"; c.Timeouts.Command = "invalid" },
			wantErr: true,
		},
		{
			name: "buffer_size below minimum",
			modify: func(c *Config) {
				c.Maildirs = "/var/mail"
				c.BufferSize = MinBufferSize - 1
			},
			wantErr: true,
		},
		{
			name: "buffer_size at minimum",
			modify: func(c *Config) {
				c.Maildirs = "/var/mail"
				c.BufferSize = MinBufferSize
			},
			wantErr: false,
		},
		{
			name: "buffer_size at or above maximum",
			modify: func(c *Config) {
				c.Maildirs = "/var/mail"
				c.BufferSize = MaxBufferSize
			},
			wantErr: true,
		},
		{
			name: "metrics enabled without address",
			modify: func(c *Config) {
				c.Maildirs = "/var/mail"
				c.Metrics.Enabled = true
				c.Metrics.Address = ""
			},
			wantErr: true,
		},
		{
			name: "metrics enabled without path",
			modify: func(c *Config) {
				c.Maildirs = "/var/mail"
				c.Metrics.Enabled = true
				c.Metrics.Path = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConnectionTimeout(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Duration
	}{
		{"10m", 10 * time.Minute},
		{"1h", 1 * time.Hour},
		{"30s", 30 * time.Second},
		{"", 10 * time.Minute},        // default
		{"invalid", 10 * time.Minute}, // invalid falls back to default
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			cfg := TimeoutsConfig{Connection: tt.value}
			if got := cfg.ConnectionTimeout(); got != tt.expected {
				t.Errorf("ConnectionTimeout() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCommandTimeout(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Duration
	}{
		{"1m", 1 * time.Minute},
		{"30s", 30 * time.Second},
		{"2m", 2 * time.Minute},
		{"", 1 * time.Minute},        // default
		{"invalid", 1 * time.Minute}, // invalid falls back to default
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			cfg := TimeoutsConfig{Command: tt.value}
			if got := cfg.CommandTimeout(); got != tt.expected {
				t.Errorf("CommandTimeout() = %v, want %v", got, tt.expected)
			}
		})
	}
}
