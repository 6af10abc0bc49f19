package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO
)

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	BaseStore
}

var _ Store = (*SQLiteStore)(nil)

// sqlitePragmas are applied to every pooled connection through the DSN.
var sqlitePragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(30000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"cache_size(-64000)",
}

func sqliteDSN(dbPath string) string {
	pragmas := sqlitePragmas
	if dbPath == ":memory:" {
		pragmas = []string{"foreign_keys(1)"}
	}
	params := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		params = append(params, "_pragma="+p)
	}
	return dbPath + "?" + strings.Join(params, "&")
}

// NewSQLiteStore opens (or creates) the database at dbPath. ":memory:" gives
// a private in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbPath == ":memory:" {
		// Each connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	store := &SQLiteStore{BaseStore: BaseStore{db: db, dialect: sqliteDialect, dbPath: dbPath}}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	log.Info("Opened SQLite database", "path", dbPath)
	return store, nil
}

// GetDefaultDBPath returns the platform-specific default database path.
func GetDefaultDBPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "printscan", "server", "server.db")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "printscan", "server", "server.db")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "printscan", "server", "server.db")
	}
}
