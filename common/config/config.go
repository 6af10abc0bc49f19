// Package config provides shared configuration utilities for the printscan
// server and console.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const productDir = "printscan"

// FindConfigFile searches the component's search paths for filename and
// returns the first readable file.
func FindConfigFile(filename string, component string) (string, []byte, error) {
	for _, path := range GetConfigSearchPaths(filename, component) {
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}
	return "", nil, fmt.Errorf("%s not found in any search path", filename)
}

// GetConfigSearchPaths returns an ordered list of paths to search for config
// files. component is "server" or "console".
func GetConfigSearchPaths(filename string, component string) []string {
	var searchPaths []string

	switch runtime.GOOS {
	case "windows":
		searchPaths = append(searchPaths, filepath.Join(os.Getenv("ProgramData"), productDir, component, filename))
	default:
		searchPaths = append(searchPaths, filepath.Join("/etc", productDir, component, filename))
	}

	if dir, err := os.UserConfigDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(dir, productDir, component, filename))
	}

	if exePath, err := os.Executable(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(filepath.Dir(exePath), filename))
	}

	searchPaths = append(searchPaths, filepath.Join(".", filename))
	return searchPaths
}

// GetDataDirectory returns (and creates) the directory for persistent data.
// Service installs use a system-wide location.
func GetDataDirectory(component string, isService bool) (string, error) {
	var dataDir string
	if isService {
		switch runtime.GOOS {
		case "windows":
			dataDir = filepath.Join(os.Getenv("ProgramData"), productDir, component)
		default:
			dataDir = filepath.Join("/var/lib", productDir, component)
		}
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not get user home directory: %w", err)
		}
		switch runtime.GOOS {
		case "windows":
			dataDir = filepath.Join(homeDir, "AppData", "Local", productDir, component)
		default:
			dataDir = filepath.Join(homeDir, ".local", "share", productDir, component)
		}
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dataDir, nil
}

// WriteDefaultTOML writes config as TOML, creating parent directories.
func WriteDefaultTOML(configPath string, config interface{}) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(config); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadTOML loads a TOML configuration file into the provided structure
func LoadTOML(configPath string, config interface{}) error {
	if _, err := os.Stat(configPath); err != nil {
		return fmt.Errorf("config file not found: %w", err)
	}
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// DatabaseConfig holds database settings. Driver is "sqlite" (default) or
// "postgres"; Path is used by sqlite and DSN by postgres.
type DatabaseConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
	DSN    string `toml:"dsn"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	ToFile bool   `toml:"to_file"`
}

// ApplyDatabaseEnvOverrides applies DB_DRIVER, DB_PATH and DB_DSN.
func ApplyDatabaseEnvOverrides(cfg *DatabaseConfig) {
	if val := os.Getenv("DB_DRIVER"); val != "" {
		cfg.Driver = val
	}
	if val := os.Getenv("DB_PATH"); val != "" {
		cfg.Path = val
	}
	if val := os.Getenv("DB_DSN"); val != "" {
		cfg.DSN = val
	}
}

// ApplyLoggingEnvOverrides applies LOG_LEVEL.
func ApplyLoggingEnvOverrides(cfg *LoggingConfig) {
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Level = val
	}
}

// EnvString overrides *dst when the variable is set and non-empty.
func EnvString(name string, dst *string) {
	if val := strings.TrimSpace(os.Getenv(name)); val != "" {
		*dst = val
	}
}

// EnvInt overrides *dst when the variable holds an integer. A malformed
// value is reported and leaves *dst untouched.
func EnvInt(name string, dst *int) error {
	val := strings.TrimSpace(os.Getenv(name))
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", name, val)
	}
	*dst = n
	return nil
}

// EnvBool overrides *dst with true for 1/true/yes/on and false for
// 0/false/no/off. Other values are ignored.
func EnvBool(name string, dst *bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off":
		*dst = false
	}
}
