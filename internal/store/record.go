package store

import (
	"context"
	"time"

	"github.com/calloway/automata-core/internal/value"
)

// Record is the schemaless unit of persistence: an identified, typed,
// timestamped payload with a source tag.
type Record struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Data      value.Value `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
}

// Result is a page of query matches.
type Result struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
	Offset  int      `json:"offset"`
	Limit   int      `json:"limit"`
}

// Storage is the record store contract the engine consumes.
//
// Implementations must be safe for concurrent use and must apply no
// schema beyond the Record envelope.
type Storage interface {
	// Insert stores a new record. An existing id is rejected with
	// ErrRecordExists.
	Insert(ctx context.Context, rec Record) error

	// Update replaces the data payload of an existing record and
	// refreshes its timestamp.
	Update(ctx context.Context, id string, data value.Value) error

	// Remove deletes a record by id.
	Remove(ctx context.Context, id string) error

	// FindByID fetches a single record.
	FindByID(ctx context.Context, id string) (Record, error)

	// Query returns records matching every condition, ordered by
	// timestamp (oldest first, ties by id), paged by offset/limit.
	// Total counts all matches regardless of paging.
	Query(ctx context.Context, conditions []Condition, offset, limit int) (Result, error)

	// QueryByType pages records of one type.
	QueryByType(ctx context.Context, recordType string, offset, limit int) (Result, error)

	// QueryByTimeRange pages records stamped within [start, end].
	QueryByTimeRange(ctx context.Context, start, end time.Time, offset, limit int) (Result, error)

	// Count counts records matching every condition.
	Count(ctx context.Context, conditions []Condition) (int, error)

	// CountByType counts records of one type.
	CountByType(ctx context.Context, recordType string) (int, error)

	// Cleanup deletes records stamped before the cutoff, returning how
	// many were removed.
	Cleanup(ctx context.Context, before time.Time) (int, error)

	// CleanupByType deletes old records of one type.
	CleanupByType(ctx context.Context, recordType string, before time.Time) (int, error)

	// Close releases the backend.
	Close() error
}

// defaultQueryLimit applies when a caller passes limit <= 0.
const defaultQueryLimit = 100
