package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/calloway/automata-core/internal/value"
)

// MemoryStorage is the in-process Storage backend: a mutex-guarded map.
//
// Suitable for tests and for deployments that do not need durability.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string]Record
	closed  bool
	now     func() time.Time
}

// MemoryOption configures a MemoryStorage.
type MemoryOption func(*MemoryStorage)

// WithMemoryClock overrides the timestamp clock. Intended for tests.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStorage) { m.now = now }
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage(opts ...MemoryOption) *MemoryStorage {
	m := &MemoryStorage{
		records: make(map[string]Record),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Insert stores a new record, stamping it when the timestamp is zero.
func (m *MemoryStorage) Insert(_ context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, exists := m.records[rec.ID]; exists {
		return fmt.Errorf("%w: %q", ErrRecordExists, rec.ID)
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = m.now().UTC()
	}
	m.records[rec.ID] = rec
	return nil
}

// Update replaces a record's data and refreshes its timestamp.
func (m *MemoryStorage) Update(_ context.Context, id string, data value.Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	rec, ok := m.records[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrRecordNotFound, id)
	}
	rec.Data = data
	rec.Timestamp = m.now().UTC()
	m.records[id] = rec
	return nil
}

// Remove deletes a record.
func (m *MemoryStorage) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, ok := m.records[id]; !ok {
		return fmt.Errorf("%w: %q", ErrRecordNotFound, id)
	}
	delete(m.records, id)
	return nil
}

// FindByID fetches a record.
func (m *MemoryStorage) FindByID(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Record{}, ErrClosed
	}
	rec, ok := m.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrRecordNotFound, id)
	}
	return rec, nil
}

// Query pages records matching every condition, ordered oldest first
// (ties by id).
func (m *MemoryStorage) Query(_ context.Context, conditions []Condition, offset, limit int) (Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Result{}, ErrClosed
	}

	matched := make([]Record, 0)
	for _, rec := range m.records {
		if matches(rec, conditions) {
			matched = append(matched, rec)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.Before(matched[j].Timestamp)
		}
		return matched[i].ID < matched[j].ID
	})

	return page(matched, offset, limit), nil
}

// QueryByType pages records of one type.
func (m *MemoryStorage) QueryByType(ctx context.Context, recordType string, offset, limit int) (Result, error) {
	return m.Query(ctx, []Condition{Cond("type", "==", value.String(recordType))}, offset, limit)
}

// QueryByTimeRange pages records stamped within [start, end].
func (m *MemoryStorage) QueryByTimeRange(ctx context.Context, start, end time.Time, offset, limit int) (Result, error) {
	return m.Query(ctx, []Condition{
		Cond("timestamp", ">=", TimestampValue(start)),
		Cond("timestamp", "<=", TimestampValue(end)),
	}, offset, limit)
}

// Count counts records matching every condition.
func (m *MemoryStorage) Count(_ context.Context, conditions []Condition) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrClosed
	}
	count := 0
	for _, rec := range m.records {
		if matches(rec, conditions) {
			count++
		}
	}
	return count, nil
}

// CountByType counts records of one type.
func (m *MemoryStorage) CountByType(ctx context.Context, recordType string) (int, error) {
	return m.Count(ctx, []Condition{Cond("type", "==", value.String(recordType))})
}

// Cleanup deletes records stamped before the cutoff.
func (m *MemoryStorage) Cleanup(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	removed := 0
	for id, rec := range m.records {
		if rec.Timestamp.Before(before) {
			delete(m.records, id)
			removed++
		}
	}
	return removed, nil
}

// CleanupByType deletes old records of one type.
func (m *MemoryStorage) CleanupByType(_ context.Context, recordType string, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	removed := 0
	for id, rec := range m.records {
		if rec.Type == recordType && rec.Timestamp.Before(before) {
			delete(m.records, id)
			removed++
		}
	}
	return removed, nil
}

// Close marks the store closed; further operations return ErrClosed.
func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.records = nil
	return nil
}

// page applies offset/limit to a sorted match set.
func page(matched []Record, offset, limit int) Result {
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if offset < 0 {
		offset = 0
	}

	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	out := make([]Record, end-offset)
	copy(out, matched[offset:end])
	return Result{Records: out, Total: total, Offset: offset, Limit: limit}
}
