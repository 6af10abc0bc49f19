package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ParkChongsam/network-printer-scanner/common/config"
	"github.com/ParkChongsam/network-printer-scanner/server/scanner"
)

// Config represents the server configuration
type Config struct {
	Server   ServerConfig          `toml:"server"`
	Scan     ScanConfig            `toml:"scan"`
	SNMP     SNMPConfig            `toml:"snmp"`
	Database config.DatabaseConfig `toml:"database"`
	Logging  config.LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Debug         bool   `toml:"debug"`
	AllowedOrigin string `toml:"allowed_origin"`
}

// ScanConfig controls network sweeps.
type ScanConfig struct {
	NetworkRange      string `toml:"network_range"`
	IntervalSeconds   int    `toml:"scan_interval_seconds"` // 0 disables the schedule
	RunOnStart        bool   `toml:"run_on_start"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	MaxAddresses      int    `toml:"max_addresses"`
	LivenessWorkers   int    `toml:"liveness_workers"`
	LivenessTimeoutMS int    `toml:"liveness_timeout_ms"`
	DetectionWorkers  int    `toml:"detection_workers"`
	WebTimeoutMS      int    `toml:"web_timeout_ms"`
	MDNSEnabled       bool   `toml:"mdns_enabled"`
	MDNSWindowMS      int    `toml:"mdns_window_ms"`
}

// SNMPConfig holds SNMP client settings
type SNMPConfig struct {
	Community string `toml:"community"`
	Version   int    `toml:"version"`
	Port      int    `toml:"port"`
	TimeoutMS int    `toml:"timeout_ms"`
	Retries   int    `toml:"retries"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		Scan: ScanConfig{
			NetworkRange:      "192.168.0.0/24",
			IntervalSeconds:   0,
			TimeoutSeconds:    300,
			MaxAddresses:      scanner.DefaultMaxAddresses,
			LivenessWorkers:   64,
			LivenessTimeoutMS: 500,
			DetectionWorkers:  8,
			WebTimeoutMS:      3000,
			MDNSEnabled:       false,
			MDNSWindowMS:      2000,
		},
		SNMP: SNMPConfig{
			Community: "public",
			Version:   2,
			Port:      161,
			TimeoutMS: 2000,
			Retries:   1,
		},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			Path:   "", // empty = platform default
		},
		Logging: config.LoggingConfig{
			Level: "info",
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

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func applyEnvOverrides(cfg *Config) error {
	var errs []string
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	config.EnvString("HOST", &cfg.Server.Host)
	collect(config.EnvInt("PORT", &cfg.Server.Port))
	config.EnvBool("DEBUG", &cfg.Server.Debug)

	config.EnvString("NETWORK_RANGE", &cfg.Scan.NetworkRange)
	collect(config.EnvInt("SCAN_INTERVAL", &cfg.Scan.IntervalSeconds))
	config.EnvBool("MDNS_ENABLED", &cfg.Scan.MDNSEnabled)

	config.EnvString("SNMP_COMMUNITY", &cfg.SNMP.Community)
	collect(config.EnvInt("SNMP_VERSION", &cfg.SNMP.Version))
	collect(config.EnvInt("SNMP_TIMEOUT_MS", &cfg.SNMP.TimeoutMS))
	collect(config.EnvInt("SNMP_RETRIES", &cfg.SNMP.Retries))

	config.ApplyDatabaseEnvOverrides(&cfg.Database)
	config.ApplyLoggingEnvOverrides(&cfg.Logging)

	if cfg.Server.Debug && os.Getenv("LOG_LEVEL") == "" {
		cfg.Logging.Level = "debug"
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Scan.IntervalSeconds < 0 {
		return fmt.Errorf("scan.scan_interval_seconds must not be negative")
	}
	if _, err := scanner.SNMPVersion(c.SNMP.Version); err != nil {
		return fmt.Errorf("snmp.version: %w", err)
	}
	if c.SNMP.Port <= 0 || c.SNMP.Port > 65535 {
		return fmt.Errorf("snmp.port %d out of range", c.SNMP.Port)
	}
	return nil
}

// ListenAddr returns host:port for the HTTP listener.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ScannerConfig converts the file settings into a scanner.Config.
func (c *Config) ScannerConfig() scanner.Config {
	snmp := scanner.DefaultSNMPConfig()
	snmp.Community = c.SNMP.Community
	snmp.Version = c.SNMP.Version
	snmp.Port = uint16(c.SNMP.Port)
	snmp.Timeout = time.Duration(c.SNMP.TimeoutMS) * time.Millisecond
	snmp.Retries = c.SNMP.Retries

	sc := scanner.Config{
		SNMP: snmp,
		Pool: scanner.PoolConfig{
			LivenessWorkers:  c.Scan.LivenessWorkers,
			LivenessTimeout:  time.Duration(c.Scan.LivenessTimeoutMS) * time.Millisecond,
			DetectionWorkers: c.Scan.DetectionWorkers,
		},
		MaxAddresses: c.Scan.MaxAddresses,
		WebTimeout:   time.Duration(c.Scan.WebTimeoutMS) * time.Millisecond,
	}
	if c.Scan.MDNSEnabled {
		sc.MDNSWindow = time.Duration(c.Scan.MDNSWindowMS) * time.Millisecond
	}
	return sc
}

// WriteDefaultConfig writes the default configuration as TOML.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	return config.WriteDefaultTOML(path, DefaultConfig())
}
