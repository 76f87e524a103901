package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calloway/automata-core/internal/value"
)

func obj(pairs map[string]value.Value) value.Value { return value.Object(pairs) }

func seedStorage(t *testing.T) *MemoryStorage {
	t.Helper()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemoryStorage()
	ctx := context.Background()

	records := []Record{
		{ID: "s1", Type: "sensor_sample", Source: "mqtt", Timestamp: base,
			Data: obj(map[string]value.Value{"name": value.String("temp"), "reading": value.Float(21.5)})},
		{ID: "s2", Type: "sensor_sample", Source: "mqtt", Timestamp: base.Add(time.Minute),
			Data: obj(map[string]value.Value{"name": value.String("temp"), "reading": value.Float(22.5)})},
		{ID: "s3", Type: "sensor_sample", Source: "mqtt", Timestamp: base.Add(2 * time.Minute),
			Data: obj(map[string]value.Value{"name": value.String("humidity"), "reading": value.Float(60)})},
		{ID: "e1", Type: "rule_execution", Source: "engine", Timestamp: base.Add(3 * time.Minute),
			Data: obj(map[string]value.Value{"rule_id": value.String("overheat"), "success": value.Bool(true)})},
	}
	for _, rec := range records {
		if err := m.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert %s: %v", rec.ID, err)
		}
	}
	return m
}

func TestMemoryStorage_InsertDuplicateRejected(t *testing.T) {
	m := seedStorage(t)
	err := m.Insert(context.Background(), Record{ID: "s1", Type: "sensor_sample"})
	if !errors.Is(err, ErrRecordExists) {
		t.Errorf("error = %v, want ErrRecordExists", err)
	}
}

func TestMemoryStorage_InsertMissingIDRejected(t *testing.T) {
	m := NewMemoryStorage()
	err := m.Insert(context.Background(), Record{Type: "x"})
	if !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("error = %v, want ErrInvalidRecord", err)
	}
}

func TestMemoryStorage_FindUpdateRemove(t *testing.T) {
	m := seedStorage(t)
	ctx := context.Background()

	rec, err := m.FindByID(ctx, "s1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if rec.Data.Field("reading").Float() != 21.5 {
		t.Errorf("reading = %v, want 21.5", rec.Data.Field("reading").Float())
	}

	newData := obj(map[string]value.Value{"name": value.String("temp"), "reading": value.Float(30)})
	if err := m.Update(ctx, "s1", newData); err != nil {
		t.Fatalf("Update: %v", err)
	}
	rec, _ = m.FindByID(ctx, "s1")
	if rec.Data.Field("reading").Float() != 30 {
		t.Errorf("updated reading = %v, want 30", rec.Data.Field("reading").Float())
	}

	if err := m.Remove(ctx, "s1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := m.FindByID(ctx, "s1"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("error = %v, want ErrRecordNotFound", err)
	}
	if err := m.Remove(ctx, "s1"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("second remove = %v, want ErrRecordNotFound", err)
	}
}

func TestMemoryStorage_QueryByDataPath(t *testing.T) {
	m := seedStorage(t)
	result, err := m.Query(context.Background(), []Condition{
		Cond("type", "==", value.String("sensor_sample")),
		Cond("data.name", "==", value.String("temp")),
	}, 0, 50)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if result.Total != 2 {
		t.Fatalf("total = %d, want 2", result.Total)
	}
	// Ordered oldest first.
	if result.Records[0].ID != "s1" || result.Records[1].ID != "s2" {
		t.Errorf("order = %s,%s want s1,s2", result.Records[0].ID, result.Records[1].ID)
	}
}

func TestMemoryStorage_QueryComparisonOnDataPath(t *testing.T) {
	m := seedStorage(t)
	result, err := m.Query(context.Background(), []Condition{
		Cond("data.reading", ">", value.Float(22)),
	}, 0, 50)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if result.Total != 2 { // s2 (22.5) and s3 (60)
		t.Errorf("total = %d, want 2", result.Total)
	}
}

func TestMemoryStorage_QueryStringPredicates(t *testing.T) {
	m := seedStorage(t)
	ctx := context.Background()

	result, _ := m.Query(ctx, []Condition{Cond("id", "starts_with", value.String("s"))}, 0, 50)
	if result.Total != 3 {
		t.Errorf("starts_with: total = %d, want 3", result.Total)
	}

	result, _ = m.Query(ctx, []Condition{Cond("data.rule_id", "contains", value.String("heat"))}, 0, 50)
	if result.Total != 1 || result.Records[0].ID != "e1" {
		t.Errorf("contains: got %+v, want just e1", result.Records)
	}

	result, _ = m.Query(ctx, []Condition{Cond("source", "ends_with", value.String("qtt"))}, 0, 50)
	if result.Total != 3 {
		t.Errorf("ends_with: total = %d, want 3", result.Total)
	}
}

func TestMemoryStorage_QueryPaging(t *testing.T) {
	m := seedStorage(t)
	result, err := m.QueryByType(context.Background(), "sensor_sample", 1, 1)
	if err != nil {
		t.Fatalf("QueryByType: %v", err)
	}
	if result.Total != 3 {
		t.Errorf("total = %d, want 3", result.Total)
	}
	if len(result.Records) != 1 || result.Records[0].ID != "s2" {
		t.Errorf("page = %+v, want [s2]", result.Records)
	}
}

func TestMemoryStorage_QueryByTimeRange(t *testing.T) {
	m := seedStorage(t)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	result, err := m.QueryByTimeRange(context.Background(),
		base.Add(30*time.Second), base.Add(2*time.Minute), 0, 50)
	if err != nil {
		t.Fatalf("QueryByTimeRange: %v", err)
	}
	if result.Total != 2 { // s2 and s3
		t.Errorf("total = %d, want 2", result.Total)
	}
}

func TestMemoryStorage_CountAndCleanup(t *testing.T) {
	m := seedStorage(t)
	ctx := context.Background()

	count, err := m.CountByType(ctx, "sensor_sample")
	if err != nil || count != 3 {
		t.Errorf("CountByType = %d, %v; want 3, nil", count, err)
	}

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	removed, err := m.Cleanup(ctx, base.Add(90*time.Second))
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if removed != 2 { // s1 and s2
		t.Errorf("removed = %d, want 2", removed)
	}
	count, _ = m.Count(ctx, nil)
	if count != 2 {
		t.Errorf("remaining = %d, want 2", count)
	}
}

func TestMemoryStorage_ClosedOperationsFail(t *testing.T) {
	m := seedStorage(t)
	_ = m.Close()
	if err := m.Insert(context.Background(), Record{ID: "x"}); !errors.Is(err, ErrClosed) {
		t.Errorf("error = %v, want ErrClosed", err)
	}
}
