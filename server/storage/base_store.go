package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
)

const schemaVersion = 1

// BaseStore holds the SQL shared by SQLite and PostgreSQL. Queries are
// written with ? placeholders and rebound per dialect.
type BaseStore struct {
	db      *sql.DB
	dialect dialect
	dbPath  string // file path for sqlite, redacted DSN for postgres
}

// DB returns the underlying database connection.
func (s *BaseStore) DB() *sql.DB {
	return s.db
}

// Path returns the database path (sqlite) or the redacted DSN (postgres).
func (s *BaseStore) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *BaseStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *BaseStore) execContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *BaseStore) queryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
}

func (s *BaseStore) queryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

// schemaStatements returns the DDL for the dialect. Every statement is
// idempotent so initSchema can run on each start.
func (s *BaseStore) schemaStatements() []string {
	ts := s.dialect.timestamp
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at %s NOT NULL
		)`, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS devices (
			ip TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			serial TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			contact TEXT NOT NULL DEFAULT '',
			uptime TEXT NOT NULL DEFAULT '',
			last_update TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'online',
			page_count BIGINT NOT NULL DEFAULT 0,
			toner TEXT NOT NULL DEFAULT '{}',
			position BIGINT NOT NULL DEFAULT 0,
			updated_at %s NOT NULL
		)`, ts),
		`CREATE INDEX IF NOT EXISTS idx_devices_position ON devices(position)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS scans (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			target TEXT NOT NULL,
			started_at %s NOT NULL,
			finished_at %s NOT NULL,
			found BIGINT NOT NULL DEFAULT 0,
			success %s NOT NULL,
			message TEXT NOT NULL DEFAULT ''
		)`, ts, ts, s.dialect.boolean),
		`CREATE INDEX IF NOT EXISTS idx_scans_started_at ON scans(started_at)`,
	}
}

func (s *BaseStore) initSchema(ctx context.Context) error {
	for _, stmt := range s.schemaStatements() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	_, err := s.execContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, ?) ON CONFLICT(version) DO NOTHING`,
		schemaVersion, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

const deviceColumns = `ip, name, model, serial, location, contact, uptime, last_update, status, page_count, toner`

func (s *BaseStore) upsertSQL(position string) string {
	return `INSERT INTO devices (` + deviceColumns + `, position, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ` + position + `, ?)
		` + s.dialect.onConflictUpdate("ip") + `
			name = excluded.name,
			model = excluded.model,
			serial = excluded.serial,
			location = excluded.location,
			contact = excluded.contact,
			uptime = excluded.uptime,
			last_update = excluded.last_update,
			status = excluded.status,
			page_count = excluded.page_count,
			toner = excluded.toner,
			updated_at = excluded.updated_at`
}

func deviceArgs(d api.Device) ([]interface{}, error) {
	toner := d.Toner
	if toner == nil {
		toner = map[api.TonerChannel]api.TonerLevel{}
	}
	tonerJSON, err := json.Marshal(toner)
	if err != nil {
		return nil, fmt.Errorf("encode toner for %s: %w", d.IP, err)
	}
	return []interface{}{
		d.IP, d.Name, d.Model, d.Serial, d.Location, d.Contact, d.Uptime,
		d.LastUpdate, d.Status, d.PageCount, string(tonerJSON),
	}, nil
}

// ReplaceAll deletes every stored device and inserts devices in order,
// inside one transaction.
func (s *BaseStore) ReplaceAll(ctx context.Context, devices []api.Device) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM devices`); err != nil {
		return fmt.Errorf("clear devices: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(s.upsertSQL("?")))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, d := range devices {
		args, err := deviceArgs(d)
		if err != nil {
			return err
		}
		args = append(args, i, now)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert %s: %w", d.IP, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Debug("Replaced device list", "count", len(devices))
	return nil
}

// Upsert inserts or updates a single device.
func (s *BaseStore) Upsert(ctx context.Context, d api.Device) error {
	args, err := deviceArgs(d)
	if err != nil {
		return err
	}
	args = append(args, time.Now().UTC())
	q := s.upsertSQL(`(SELECT COALESCE(MAX(position), -1) + 1 FROM devices)`)
	if _, err := s.execContext(ctx, q, args...); err != nil {
		return fmt.Errorf("upsert %s: %w", d.IP, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDevice(row rowScanner) (*api.Device, error) {
	var d api.Device
	var toner string
	if err := row.Scan(&d.IP, &d.Name, &d.Model, &d.Serial, &d.Location, &d.Contact,
		&d.Uptime, &d.LastUpdate, &d.Status, &d.PageCount, &toner); err != nil {
		return nil, err
	}
	d.Toner = map[api.TonerChannel]api.TonerLevel{}
	if toner != "" {
		if err := json.Unmarshal([]byte(toner), &d.Toner); err != nil {
			log.Warn("Discarding malformed toner data", "ip", d.IP, "error", err)
			d.Toner = map[api.TonerChannel]api.TonerLevel{}
		}
	}
	return &d, nil
}

// Get returns the device stored for ip.
func (s *BaseStore) Get(ctx context.Context, ip string) (*api.Device, error) {
	row := s.queryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE ip = ?`, ip)
	d, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ip, err)
	}
	return d, nil
}

// Delete removes the device stored for ip.
func (s *BaseStore) Delete(ctx context.Context, ip string) error {
	res, err := s.execContext(ctx, `DELETE FROM devices WHERE ip = ?`, ip)
	if err != nil {
		return fmt.Errorf("delete %s: %w", ip, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", ip, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every stored device in list order.
func (s *BaseStore) List(ctx context.Context) ([]api.Device, error) {
	rows, err := s.queryContext(ctx, `SELECT `+deviceColumns+` FROM devices ORDER BY position, ip`)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	devices := []api.Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device row: %w", err)
		}
		devices = append(devices, *d)
	}
	return devices, rows.Err()
}

// RecordScan appends rec to the scan history.
func (s *BaseStore) RecordScan(ctx context.Context, rec ScanRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("scan record requires an id")
	}
	_, err := s.execContext(ctx, `
		INSERT INTO scans (id, kind, target, started_at, finished_at, found, success, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Kind), rec.Target, rec.StartedAt.UTC(), rec.FinishedAt.UTC(),
		rec.Found, rec.Success, rec.Message)
	if err != nil {
		return fmt.Errorf("record scan %s: %w", rec.ID, err)
	}
	return nil
}

// RecentScans returns up to n scans, newest first. n <= 0 means 20.
func (s *BaseStore) RecentScans(ctx context.Context, n int) ([]ScanRecord, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := s.queryContext(ctx, `
		SELECT id, kind, target, started_at, finished_at, found, success, message
		FROM scans
		ORDER BY started_at DESC, id
		`+limit(n))
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	var out []ScanRecord
	for rows.Next() {
		var rec ScanRecord
		var kind string
		if err := rows.Scan(&rec.ID, &kind, &rec.Target, &rec.StartedAt, &rec.FinishedAt,
			&rec.Found, &rec.Success, &rec.Message); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		rec.Kind = ScanKind(kind)
		out = append(out, rec)
	}
	return out, rows.Err()
}
