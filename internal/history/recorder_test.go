package history

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/calloway/automata-core/internal/store"
	"github.com/calloway/automata-core/internal/value"
)

// mockMetricWriter captures tsdb mirror writes.
type mockMetricWriter struct {
	mu      sync.Mutex
	samples []string
	fires   []string
}

func (m *mockMetricWriter) WriteSensorSample(name string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, name)
}

func (m *mockMetricWriter) WriteRuleFire(ruleID string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fires = append(m.fires, ruleID)
}

func TestRecorder_LastN(t *testing.T) {
	r := NewRecorder(nil)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		r.RecordSample(ctx, "temp", value.Int(int64(i*10)))
	}

	got := r.LastN("temp", 3)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	// Oldest first: 30, 40, 50.
	for i, want := range []int64{30, 40, 50} {
		if got[i].Int() != want {
			t.Errorf("sample %d = %d, want %d", i, got[i].Int(), want)
		}
	}

	if got := r.LastN("unknown", 3); len(got) != 0 {
		t.Errorf("unknown variable returned %d samples, want 0", len(got))
	}
}

func TestRecorder_RingIsBounded(t *testing.T) {
	r := NewRecorder(nil)
	ctx := context.Background()
	for i := 0; i < maxSamplesPerVariable*2; i++ {
		r.RecordSample(ctx, "temp", value.Int(int64(i)))
	}
	got := r.LastN("temp", maxSamplesPerVariable*2)
	if len(got) != maxSamplesPerVariable {
		t.Errorf("ring holds %d samples, want cap %d", len(got), maxSamplesPerVariable)
	}
	// The newest sample survives.
	if got[len(got)-1].Int() != int64(maxSamplesPerVariable*2-1) {
		t.Errorf("newest = %d, want %d", got[len(got)-1].Int(), maxSamplesPerVariable*2-1)
	}
}

func TestRecorder_PersistsSamples(t *testing.T) {
	storage := store.NewMemoryStorage()
	r := NewRecorder(storage, WithSource("test"))
	ctx := context.Background()

	r.RecordSample(ctx, "temp", value.Float(21.5))
	r.RecordSample(ctx, "humidity", value.Float(60))

	result, err := r.SensorSamples(ctx, "temp", 0, 10)
	if err != nil {
		t.Fatalf("SensorSamples: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("total = %d, want 1", result.Total)
	}
	rec := result.Records[0]
	if rec.Source != "test" {
		t.Errorf("source = %q, want test", rec.Source)
	}
	if rec.Data.Field("reading").Float() != 21.5 {
		t.Errorf("reading = %v, want 21.5", rec.Data.Field("reading").Float())
	}
}

func TestRecorder_RuleExecutionHistory(t *testing.T) {
	storage := store.NewMemoryStorage()
	r := NewRecorder(storage)
	ctx := context.Background()

	r.RecordRuleExecution(ctx, "overheat", 2, true, 5*time.Millisecond)
	r.RecordRuleExecution(ctx, "overheat", 2, false, 3*time.Millisecond)
	r.RecordRuleExecution(ctx, "other", 1, true, time.Millisecond)

	result, err := r.RuleExecutions(ctx, "overheat", 0, 10)
	if err != nil {
		t.Fatalf("RuleExecutions: %v", err)
	}
	if result.Total != 2 {
		t.Errorf("total = %d, want 2", result.Total)
	}

	rate, err := r.RuleSuccessRate(ctx, "overheat")
	if err != nil {
		t.Fatalf("RuleSuccessRate: %v", err)
	}
	if rate != 0.5 {
		t.Errorf("success rate = %v, want 0.5", rate)
	}

	// Unknown rule: zero executions, zero rate.
	rate, err = r.RuleSuccessRate(ctx, "ghost")
	if err != nil || rate != 0 {
		t.Errorf("ghost rate = %v, %v; want 0, nil", rate, err)
	}
}

func TestRecorder_MirrorsToTSDB(t *testing.T) {
	w := &mockMetricWriter{}
	r := NewRecorder(nil, WithMetricWriter(w))
	ctx := context.Background()

	r.RecordSample(ctx, "temp", value.Float(21))
	r.RecordSample(ctx, "label", value.String("on")) // non-numeric: not mirrored
	r.RecordRuleExecution(ctx, "overheat", 1, true, time.Millisecond)

	if len(w.samples) != 1 || w.samples[0] != "temp" {
		t.Errorf("mirrored samples = %v, want [temp]", w.samples)
	}
	if len(w.fires) != 1 || w.fires[0] != "overheat" {
		t.Errorf("mirrored fires = %v, want [overheat]", w.fires)
	}
}
