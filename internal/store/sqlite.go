package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/calloway/automata-core/internal/value"
)

// SQLiteStorage implements Storage on a SQLite table.
//
// The data payload is stored as JSON text; envelope fields get their own
// columns so type and time-range scans stay indexed. Conditions that
// reach into the payload (dotted data paths) are evaluated in Go after
// the indexed candidates are fetched.
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// SQLiteOption configures a SQLiteStorage.
type SQLiteOption func(*SQLiteStorage)

// WithSQLiteClock overrides the timestamp clock. Intended for tests.
func WithSQLiteClock(now func() time.Time) SQLiteOption {
	return func(s *SQLiteStorage) { s.now = now }
}

// NewSQLiteStorage creates a store over an open database. The records
// table must exist (see migrations).
func NewSQLiteStorage(db *sql.DB, opts ...SQLiteOption) *SQLiteStorage {
	s := &SQLiteStorage{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert stores a new record, stamping it when the timestamp is zero.
func (s *SQLiteStorage) Insert(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now().UTC()
	}

	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("marshalling data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (id, type, data, timestamp_ms, source)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Type, string(data), rec.Timestamp.UnixMilli(), rec.Source,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrRecordExists, rec.ID)
		}
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// Update replaces a record's data and refreshes its timestamp.
func (s *SQLiteStorage) Update(ctx context.Context, id string, data value.Value) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshalling data: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE records SET data = ?, timestamp_ms = ? WHERE id = ?`,
		string(payload), s.now().UTC().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %q", ErrRecordNotFound, id)
	}
	return nil
}

// Remove deletes a record by id.
func (s *SQLiteStorage) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("removing record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("removing record: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %q", ErrRecordNotFound, id)
	}
	return nil
}

// FindByID fetches a single record.
func (s *SQLiteStorage) FindByID(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, data, timestamp_ms, source FROM records WHERE id = ?`, id)

	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %q", ErrRecordNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("finding record: %w", err)
	}
	return rec, nil
}

// Query pages records matching every condition. Envelope equality on
// type and timestamp bounds are pushed into SQL; everything else is
// filtered in Go.
func (s *SQLiteStorage) Query(ctx context.Context, conditions []Condition, offset, limit int) (Result, error) {
	where, args := pushdown(conditions)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, data, timestamp_ms, source FROM records `+where+`
		ORDER BY timestamp_ms, id`, args...)
	if err != nil {
		return Result{}, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	matched := make([]Record, 0)
	for rows.Next() {
		rec, scanErr := scanRecord(rows.Scan)
		if scanErr != nil {
			return Result{}, fmt.Errorf("scanning record: %w", scanErr)
		}
		if matches(rec, conditions) {
			matched = append(matched, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("querying records: %w", err)
	}

	return page(matched, offset, limit), nil
}

// QueryByType pages records of one type.
func (s *SQLiteStorage) QueryByType(ctx context.Context, recordType string, offset, limit int) (Result, error) {
	return s.Query(ctx, []Condition{Cond("type", "==", value.String(recordType))}, offset, limit)
}

// QueryByTimeRange pages records stamped within [start, end].
func (s *SQLiteStorage) QueryByTimeRange(ctx context.Context, start, end time.Time, offset, limit int) (Result, error) {
	return s.Query(ctx, []Condition{
		Cond("timestamp", ">=", TimestampValue(start)),
		Cond("timestamp", "<=", TimestampValue(end)),
	}, offset, limit)
}

// Count counts records matching every condition.
func (s *SQLiteStorage) Count(ctx context.Context, conditions []Condition) (int, error) {
	result, err := s.Query(ctx, conditions, 0, 1)
	if err != nil {
		return 0, err
	}
	return result.Total, nil
}

// CountByType counts records of one type.
func (s *SQLiteStorage) CountByType(ctx context.Context, recordType string) (int, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE type = ?`, recordType)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// Cleanup deletes records stamped before the cutoff.
func (s *SQLiteStorage) Cleanup(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE timestamp_ms < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("cleaning up records: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleaning up records: %w", err)
	}
	return int(affected), nil
}

// CleanupByType deletes old records of one type.
func (s *SQLiteStorage) CleanupByType(ctx context.Context, recordType string, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE type = ? AND timestamp_ms < ?`,
		recordType, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("cleaning up records: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleaning up records: %w", err)
	}
	return int(affected), nil
}

// Close is a no-op: the database handle belongs to the caller.
func (s *SQLiteStorage) Close() error { return nil }

// scanRecord reads one row via a Scan function.
func scanRecord(scan func(dest ...any) error) (Record, error) {
	var (
		rec         Record
		data        string
		timestampMS int64
	)
	if err := scan(&rec.ID, &rec.Type, &data, &timestampMS, &rec.Source); err != nil {
		return Record{}, err
	}
	rec.Timestamp = time.UnixMilli(timestampMS).UTC()
	if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
		return Record{}, fmt.Errorf("unmarshalling data: %w", err)
	}
	return rec, nil
}

// pushdown extracts the SQL-expressible subset of the conditions: type
// equality and timestamp bounds.
func pushdown(conditions []Condition) (string, []any) {
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 2)
	for _, cond := range conditions {
		switch {
		case cond.Field == "type" && cond.Op == "==" && cond.Value.IsString():
			clauses = append(clauses, "type = ?")
			args = append(args, cond.Value.Str())
		case cond.Field == "timestamp" && cond.Value.IsNumber():
			switch cond.Op {
			case ">", ">=", "<", "<=":
				clauses = append(clauses, "timestamp_ms "+cond.Op+" ?")
				args = append(args, cond.Value.Int())
			}
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	where := "WHERE " + clauses[0]
	for _, clause := range clauses[1:] {
		where += " AND " + clause
	}
	return where, args
}

// isUniqueViolation detects a primary-key conflict without importing
// driver-specific error types.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "constraint")
}
