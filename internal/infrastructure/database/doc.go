// Package database provides SQLite database connectivity for Automata Core.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Registered, versioned schema migrations (see Register/Migrate)
//   - Connection lifecycle and health checks
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Performance Characteristics:
//   - WAL mode allows concurrent reads during writes
//   - Busy timeout prevents lock contention errors
//   - The pool is pinned to one connection (SQLite single-writer model)
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration Strategy:
//
// Migrations register themselves at init time (see the migrations
// package) and are additive-only to support safe rollbacks:
//   - New columns must be NULLABLE or have DEFAULT values
//   - Never DROP or RENAME columns (until v2.0 major release)
//   - Versions use YYYYMMDD_HHMMSS so lexical order is chronological
package database
