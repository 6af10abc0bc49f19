// Package settings persists console settings in a SQLite key/value table.
package settings

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	pmsettings "github.com/ParkChongsam/network-printer-scanner/common/settings"
)

// Store loads and saves the console settings.
type Store interface {
	Load() (pmsettings.Settings, error)
	Save(pmsettings.Settings) error
	Close() error
}

// ConfigStore is a JSON key/value store backed by the console_config table.
type ConfigStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the config database at dbPath. An empty
// path or ":memory:" opens a private in-memory database.
func Open(dbPath string) (*ConfigStore, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open console config database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	}

	store := &ConfigStore{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *ConfigStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS console_config (
		key TEXT PRIMARY KEY,
		value TEXT,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create console_config schema: %w", err)
	}
	return nil
}

// SetValue stores any JSON-serializable value under key.
func (s *ConfigStore) SetValue(key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal config value: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO console_config (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, string(b))
	if err != nil {
		return fmt.Errorf("failed to save config value: %w", err)
	}
	return nil
}

// GetValue decodes the value stored under key into dest. It reports false
// when the key is absent, leaving dest unchanged.
func (s *ConfigStore) GetValue(key string, dest interface{}) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow(`SELECT value FROM console_config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get config value: %w", err)
	}
	if err := json.Unmarshal([]byte(value), dest); err != nil {
		return true, fmt.Errorf("failed to unmarshal config value: %w", err)
	}
	return true, nil
}

// DeleteValue removes key.
func (s *ConfigStore) DeleteValue(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM console_config WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete config value: %w", err)
	}
	return nil
}

// Load returns the saved settings, or the defaults when none were saved.
// Fields missing from an older saved value keep their defaults.
func (s *ConfigStore) Load() (pmsettings.Settings, error) {
	out := pmsettings.DefaultSettings()
	if _, err := s.GetValue(pmsettings.StorageKey, &out); err != nil {
		return pmsettings.DefaultSettings(), err
	}
	return out, nil
}

// Save persists cfg under the settings key.
func (s *ConfigStore) Save(cfg pmsettings.Settings) error {
	return s.SetValue(pmsettings.StorageKey, cfg)
}

// Close closes the database.
func (s *ConfigStore) Close() error {
	return s.db.Close()
}
