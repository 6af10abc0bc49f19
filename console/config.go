package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/ParkChongsam/network-printer-scanner/common/config"
	"github.com/ParkChongsam/network-printer-scanner/console/filter"
	"github.com/ParkChongsam/network-printer-scanner/console/session"
)

// Config represents the console configuration
type Config struct {
	Server  ServerConfig         `toml:"server"`
	Console ConsoleConfig        `toml:"console"`
	Logging config.LoggingConfig `toml:"logging"`
}

// ServerConfig locates the backend.
type ServerConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ConsoleConfig holds local console behaviour.
type ConsoleConfig struct {
	DataDir             string `toml:"data_dir"` // empty = platform default
	ScanMode            string `toml:"scan_mode"`
	FilterMode          string `toml:"filter_mode"`
	NotificationSeconds int    `toml:"notification_seconds"`
	Color               bool   `toml:"color"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:            "http://localhost:5000",
			TimeoutSeconds: 300,
		},
		Console: ConsoleConfig{
			ScanMode:            string(session.ScanModeNetwork),
			FilterMode:          string(filter.MultiField),
			NotificationSeconds: 5,
			Color:               true,
		},
		Logging: config.LoggingConfig{
			Level: "warn",
		},
	}
}

// LoadConfig loads configuration from a TOML file (when it exists) and then
// applies environment variable overrides.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := config.LoadTOML(configPath, cfg); err != nil {
				return nil, err
			}
		}
	}

	config.EnvString("CONSOLE_SERVER_URL", &cfg.Server.URL)
	config.EnvString("CONSOLE_DATA_DIR", &cfg.Console.DataDir)
	config.ApplyLoggingEnvOverrides(&cfg.Logging)
	if os.Getenv("NO_COLOR") != "" {
		cfg.Console.Color = false
	}

	return cfg, cfg.Validate()
}

// Validate reports settings the console cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server.url %q must be an http(s) URL", c.Server.URL)
	}
	c.Server.URL = strings.TrimRight(c.Server.URL, "/")
	if _, err := session.ParseScanMode(c.Console.ScanMode); err != nil {
		return fmt.Errorf("console.scan_mode: %w", err)
	}
	if _, err := filter.ParseMode(c.Console.FilterMode); err != nil {
		return fmt.Errorf("console.filter_mode: %w", err)
	}
	if c.Server.TimeoutSeconds < 0 {
		return fmt.Errorf("server.timeout_seconds must not be negative")
	}
	return nil
}

// WriteDefaultConfig writes the default configuration as TOML.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	return config.WriteDefaultTOML(path, DefaultConfig())
}
