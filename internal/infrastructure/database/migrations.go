package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Migration is one versioned schema change.
//
// Versions are ordered lexically; the YYYYMMDD_HHMMSS convention keeps
// lexical and chronological order identical. DownSQL may be empty for
// migrations that cannot be rolled back.
type Migration struct {
	Version string
	Name    string
	UpSQL   string
	DownSQL string
}

// The migration registry. Migrations register themselves at init time
// (see the migrations package); the registry is sorted on demand.
var (
	registryMu sync.Mutex
	registry   = map[string]Migration{}
)

// Register adds a migration to the registry. It panics on a duplicate
// or empty version: both are programming errors that must fail at
// startup, not at migration time.
func Register(m Migration) {
	if m.Version == "" {
		panic("database: migration with empty version")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[m.Version]; dup {
		panic(fmt.Sprintf("database: duplicate migration version %q", m.Version))
	}
	registry[m.Version] = m
}

// registered returns the registry sorted by version, oldest first.
func registered() []Migration {
	registryMu.Lock()
	defer registryMu.Unlock()
	out := make([]Migration, 0, len(registry))
	for _, m := range registry {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

// Migrate applies all pending registered migrations, oldest first.
//
// Each migration runs in its own transaction: if migration N fails,
// migrations 1..N-1 stay committed, N is rolled back, and N+1 onwards
// are not attempted. Re-running Migrate after fixing the failure
// continues from N. Migrate with nothing pending is a no-op.
func (db *DB) Migrate(ctx context.Context) error {
	if err := db.ensureVersionTable(ctx); err != nil {
		return err
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, m := range registered() {
		if _, done := applied[m.Version]; done {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("applying migration %s (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// MigrateDown rolls back the most recently applied migration.
// Primarily for development and tests.
func (db *DB) MigrateDown(ctx context.Context) error {
	if err := db.ensureVersionTable(ctx); err != nil {
		return err
	}

	var latest string
	err := db.QueryRowContext(ctx,
		"SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1").Scan(&latest)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil // nothing applied
		}
		return fmt.Errorf("reading applied migrations: %w", err)
	}

	var target *Migration
	for _, m := range registered() {
		if m.Version == latest {
			m := m
			target = &m
			break
		}
	}
	if target == nil {
		return fmt.Errorf("migration %s is applied but not registered", latest)
	}
	if target.DownSQL == "" {
		return fmt.Errorf("migration %s has no down SQL", latest)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting rollback transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	if _, err := tx.ExecContext(ctx, target.DownSQL); err != nil {
		return fmt.Errorf("executing down SQL for %s: %w", latest, err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM schema_migrations WHERE version = ?", latest); err != nil {
		return fmt.Errorf("removing migration record %s: %w", latest, err)
	}
	return tx.Commit()
}

// MigrationStatus reports applied and pending migration versions.
func (db *DB) MigrationStatus(ctx context.Context) (applied, pending []string, err error) {
	if err := db.ensureVersionTable(ctx); err != nil {
		return nil, nil, err
	}

	appliedSet, err := db.appliedVersions(ctx)
	if err != nil {
		return nil, nil, err
	}

	for _, m := range registered() {
		if _, done := appliedSet[m.Version]; done {
			applied = append(applied, m.Version)
		} else {
			pending = append(pending, m.Version)
		}
	}
	return applied, pending, nil
}

// applyMigration runs one migration and records it, atomically.
func (db *DB) applyMigration(ctx context.Context, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	if _, err := tx.ExecContext(ctx, m.UpSQL); err != nil {
		return fmt.Errorf("executing up SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		m.Version, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}
	return tx.Commit()
}

// ensureVersionTable creates the bookkeeping table on first use.
func (db *DB) ensureVersionTable(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}
	return nil
}

// appliedVersions reads the recorded migration versions.
func (db *DB) appliedVersions(ctx context.Context) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scanning migration version: %w", err)
		}
		applied[version] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}
	return applied, nil
}
