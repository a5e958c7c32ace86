package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"financeiro/internal/core"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Config selects the driver and its connection target.
type Config struct {
	Driver      Driver
	SQLitePath  string // used by SQLite
	DatabaseURL string // used by Postgres
}

func (c Config) dsn() string {
	if c.Driver == Postgres {
		return c.DatabaseURL
	}
	return c.SQLitePath
}

// Store owns the single database handle shared by the ledger and the
// account registry for the lifetime of the process.
type Store struct {
	db     *sql.DB
	driver Driver
}

// Open connects to the configured database and applies migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if !cfg.Driver.IsValid() {
		return nil, fmt.Errorf("unsupported driver: %q", cfg.Driver)
	}
	dsn := cfg.dsn()
	if dsn == "" {
		return nil, fmt.Errorf("empty connection target for %s driver", cfg.Driver)
	}

	if cfg.Driver == SQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open(cfg.Driver.sqlName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	if cfg.Driver == SQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(cfg.Driver, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return New(db, cfg.Driver), nil
}

// New wraps an already opened and migrated database.
func New(db *sql.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

func (s *Store) Driver() Driver {
	return s.driver
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", core.ErrStorage, op, err)
}
