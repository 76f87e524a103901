package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Filesystem permissions: directory owner rwx, file owner rw.
const (
	dirPermissions  = 0750
	filePermissions = 0600
)

// openTimeout bounds the connectivity check on Open.
const openTimeout = 5 * time.Second

// Config contains database configuration options.
// These map to the database section of config.yaml.
type Config struct {
	// Path is the filesystem path to the SQLite database file.
	// The directory is created if it doesn't exist.
	Path string

	// WALMode enables Write-Ahead Logging so reads proceed during
	// writes.
	WALMode bool

	// BusyTimeout is the maximum time to wait for a database lock
	// (seconds).
	BusyTimeout int
}

// DB wraps a sql.DB connection with Automata-specific lifecycle:
// pragma-configured open, embedded-migration support (migrations.go)
// and health checking. The embedded sql.DB carries the query surface.
type DB struct {
	*sql.DB
	path string
}

// dsn assembles the go-sqlite3 connection string from the config's
// pragma set.
func (cfg Config) dsn() string {
	pragmas := url.Values{}
	pragmas.Set("_busy_timeout", fmt.Sprintf("%d", cfg.BusyTimeout*1000))
	pragmas.Set("_foreign_keys", "on")
	if cfg.WALMode {
		pragmas.Set("_journal_mode", "WAL")
		pragmas.Set("_synchronous", "NORMAL")
	}
	return "file:" + cfg.Path + "?" + pragmas.Encode()
}

// Open connects to the SQLite database, creating the file and its
// directory as needed, and verifies the connection with a ping.
//
// SQLite supports a single writer, so the pool is pinned to one
// connection; WAL mode keeps readers unblocked during writes.
func Open(cfg Config) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	db := &DB{DB: sqlDB, path: cfg.Path}

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // Best-effort cleanup on error path
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	// Tighten file permissions. The file may not exist until the first
	// write, so a failure here is not an error.
	_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // First run creates the file later

	return db, nil
}

// Close closes the database connection. Call on application shutdown.
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Path returns the filesystem path to the database file.
func (db *DB) Path() string {
	return db.path
}

// HealthCheck verifies the database answers a trivial query.
func (db *DB) HealthCheck(ctx context.Context) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
