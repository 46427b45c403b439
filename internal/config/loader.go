package config

import (
	"flag"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// Flags holds command-line flag values.
type Flags struct {
	ConfigPath     string
	Hostname       string
	Banner         string
	LogLevel       string
	Listen         string
	MaxConnections int
	Maildirs       string
	Transformer    string
	BufferSize     int
}

// ParseFlags parses command-line flags and returns a Flags struct.
func ParseFlags() *Flags {
	f := &Flags{}

	flag.StringVar(&f.ConfigPath, "config", "./pop3d.toml", "Path to configuration file")
	flag.StringVar(&f.Hostname, "hostname", "", "Server hostname")
	flag.StringVar(&f.Banner, "banner", "", "Greeting banner text")
	flag.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&f.Listen, "listen", "", "Listen address (replaces all config listeners)")
	flag.IntVar(&f.MaxConnections, "max-connections", 0, "Maximum concurrent connections")
	flag.StringVar(&f.Maildirs, "maildirs", "", "Root directory containing per-user maildirs")
	flag.StringVar(&f.Transformer, "transformer", "", "Path to an external message transformer program")
	flag.IntVar(&f.BufferSize, "buffer-size", 0, "Per-connection socket buffer size in bytes")

	flag.Parse()
	return f
}

// Load parses a TOML configuration file and returns the Config.
// If the file does not exist, returns the default configuration.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig FileConfig
	if err := toml.Unmarshal(data, &fileConfig); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	return mergeConfig(cfg, fileConfig.Pop3d), nil
}

// ApplyFlags merges command-line flag values into the config.
// Non-zero/non-empty flag values override config file values.
func ApplyFlags(cfg Config, f *Flags) Config {
	if f.Hostname != "" {
		cfg.Hostname = f.Hostname
	}
	if f.Banner != "" {
		cfg.Banner = f.Banner
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.Listen != "" {
		// -listen flag replaces ALL listeners with a single listener.
		cfg.Listeners = []string{f.Listen}
	}
	if f.MaxConnections > 0 {
		cfg.Limits.MaxConnections = f.MaxConnections
	}
	if f.Maildirs != "" {
		cfg.Maildirs = f.Maildirs
	}
	if f.Transformer != "" {
		cfg.Transformer = f.Transformer
	}
	if f.BufferSize > 0 {
		cfg.BufferSize = f.BufferSize
	}

	return cfg
}

// LoadWithFlags loads configuration from the path specified in flags,
// then applies flag overrides.
func LoadWithFlags(f *Flags) (Config, error) {
	cfg, err := Load(f.ConfigPath)
	if err != nil {
		return cfg, err
	}
	return ApplyFlags(cfg, f), nil
}

// mergeConfig merges non-zero values from src into dst.
func mergeConfig(dst, src Config) Config {
	if src.Hostname != "" {
		dst.Hostname = src.Hostname
	}
	if src.Banner != "" {
		dst.Banner = src.Banner
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if len(src.Listeners) > 0 {
		dst.Listeners = src.Listeners
	}
	if src.Maildirs != "" {
		dst.Maildirs = src.Maildirs
	}
	if src.Transformer != "" {
		dst.Transformer = src.Transformer
	}
	if src.BufferSize > 0 {
		dst.BufferSize = src.BufferSize
	}
	if src.Timeouts.Connection != "" {
		dst.Timeouts.Connection = src.Timeouts.Connection
	}
	if src.Timeouts.Command != "" {
		dst.Timeouts.Command = src.Timeouts.Command
	}
	if src.Limits.MaxConnections > 0 {
		dst.Limits.MaxConnections = src.Limits.MaxConnections
	}
	if src.Metrics.Enabled {
		dst.Metrics.Enabled = src.Metrics.Enabled
	}
	if src.Metrics.Address != "" {
		dst.Metrics.Address = src.Metrics.Address
	}
	if src.Metrics.Path != "" {
		dst.Metrics.Path = src.Metrics.Path
	}

	return dst
}
