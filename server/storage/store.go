// Package storage persists scanned printers and scan history for the server.
// SQLite (modernc, pure Go) is the default backend; PostgreSQL is available
// through the pgx stdlib driver. Both share the SQL in BaseStore.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
	"github.com/ParkChongsam/network-printer-scanner/common/config"
)

// DefaultSQLitePath is used when the sqlite driver is selected without a path.
const DefaultSQLitePath = "printscan.db"

// ErrNotFound is returned when a device is not stored.
var ErrNotFound = errors.New("device not found")

// ScanKind identifies what a recorded scan targeted.
type ScanKind string

const (
	ScanKindRange ScanKind = "range"
	ScanKindHost  ScanKind = "host"
)

// ScanRecord is one row of scan history.
type ScanRecord struct {
	ID         string
	Kind       ScanKind
	Target     string
	StartedAt  time.Time
	FinishedAt time.Time
	Found      int
	Success    bool
	Message    string
}

// Duration returns how long the scan ran.
func (r ScanRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store is the device repository used by the HTTP handlers and the scan
// schedule.
type Store interface {
	// ReplaceAll swaps the whole stored list for devices, keeping their order.
	ReplaceAll(ctx context.Context, devices []api.Device) error

	// Upsert inserts or updates one device. New devices go to the end of
	// the list; existing ones keep their position.
	Upsert(ctx context.Context, device api.Device) error

	// Get returns the device stored for ip or ErrNotFound.
	Get(ctx context.Context, ip string) (*api.Device, error)

	// Delete removes the device stored for ip or returns ErrNotFound.
	Delete(ctx context.Context, ip string) error

	// List returns all devices in list order.
	List(ctx context.Context) ([]api.Device, error)

	// RecordScan appends a scan to the history.
	RecordScan(ctx context.Context, rec ScanRecord) error

	// RecentScans returns up to n scans, newest first.
	RecentScans(ctx context.Context, n int) ([]ScanRecord, error)

	Close() error
}

// NewStore opens the backend selected by cfg.Driver. An empty driver means
// sqlite.
func NewStore(cfg config.DatabaseConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite", "sqlite3", "modernc":
		path := cfg.Path
		if path == "" {
			path = DefaultSQLitePath
		}
		return NewSQLiteStore(path)

	case "postgres", "postgresql", "pgx":
		return NewPostgresStore(cfg.DSN)

	default:
		return nil, fmt.Errorf("unsupported database driver: %q (supported: sqlite, postgres)", cfg.Driver)
	}
}
