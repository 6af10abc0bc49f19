package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	BaseStore
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to dsn, pings the server and creates the schema.
// dsn may be a URL or a keyword/value connection string.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres driver requires a DSN")
	}
	pgCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres DSN: %w", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	redacted := fmt.Sprintf("postgres://%s@%s:%d/%s", pgCfg.User, pgCfg.Host, pgCfg.Port, pgCfg.Database)
	store := &PostgresStore{BaseStore: BaseStore{db: db, dialect: postgresDialect, dbPath: redacted}}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize postgres schema: %w", err)
	}

	log.Info("Opened PostgreSQL database", "host", pgCfg.Host, "database", pgCfg.Database)
	return store, nil
}
