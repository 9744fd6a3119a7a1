package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Database is the subset of *sql.DB the DAOs use.
type Database interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	Close() error
}

// DatabaseGetter returns a database handle. Used to defer retrieval until first use.
type DatabaseGetter func() Database

var defaultDB Database

const (
	createTableSQL = `
CREATE TABLE IF NOT EXISTS rom_cache_tab (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	location VARCHAR(1024) NOT NULL,
	rom_name VARCHAR(128) NOT NULL,
	source VARCHAR(1024) NOT NULL,
	file_size BIGINT NOT NULL,
	file_modtime BIGINT NOT NULL,
	create_time BIGINT NOT NULL,
	update_time BIGINT NOT NULL
);`

	createIndexSQL = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_rom_cache_tab_location
ON rom_cache_tab(location);`
)

// Open opens (creating when needed) the sqlite file at path and ensures the schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure db dir %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema %s: %w", path, err)
	}
	return db, nil
}

// SetDefault assigns the global database instance.
func SetDefault(db Database) {
	defaultDB = db
}

// Default returns the configured global database instance.
func Default() Database {
	return defaultDB
}

// EnsureSchema initialises required tables and indexes.
func EnsureSchema(ctx context.Context, db Database) error {
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, createIndexSQL); err != nil {
		return err
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
