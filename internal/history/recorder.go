package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calloway/automata-core/internal/store"
	"github.com/calloway/automata-core/internal/value"
)

// Record types written to the store.
const (
	TypeSensorSample  = "sensor_sample"
	TypeRuleExecution = "rule_execution"
)

// maxSamplesPerVariable bounds the in-memory ring backing the last-n
// aggregate functions.
const maxSamplesPerVariable = 256

// MetricWriter mirrors samples into a time-series database. Optional;
// implemented by the influxdb client.
type MetricWriter interface {
	WriteSensorSample(name string, v float64)
	WriteRuleFire(ruleID string, durationMillis float64)
}

// Logger is the logging interface the recorder needs.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder captures sensor samples and rule executions.
//
// Samples land in three places: an in-memory ring per variable (serving
// the expression evaluator's avg_last_n/max_last_n/trend functions), the
// record store (durable, queryable history) and optionally a
// time-series mirror. Store and mirror failures are logged, never
// surfaced to the tick path.
//
// Thread Safety: all methods are safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	samples map[string][]value.Value

	storage store.Storage
	tsdb    MetricWriter
	source  string
	logger  Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithMetricWriter installs a time-series mirror.
func WithMetricWriter(w MetricWriter) RecorderOption {
	return func(r *Recorder) { r.tsdb = w }
}

// WithSource overrides the source tag written on records.
func WithSource(source string) RecorderOption {
	return func(r *Recorder) { r.source = source }
}

// WithRecorderLogger installs the recorder logger.
func WithRecorderLogger(l Logger) RecorderOption {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRecorder creates a recorder. storage may be nil, in which case only
// the in-memory ring is kept.
func NewRecorder(storage store.Storage, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		samples: make(map[string][]value.Value),
		storage: storage,
		source:  "engine",
		logger:  noopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordSample captures one sensor reading.
func (r *Recorder) RecordSample(ctx context.Context, name string, v value.Value) {
	r.mu.Lock()
	ring := append(r.samples[name], v)
	if len(ring) > maxSamplesPerVariable {
		ring = ring[len(ring)-maxSamplesPerVariable:]
	}
	r.samples[name] = ring
	r.mu.Unlock()

	if r.tsdb != nil && v.IsNumber() {
		r.tsdb.WriteSensorSample(name, v.Float())
	}

	if r.storage == nil {
		return
	}
	rec := store.Record{
		ID:     uuid.NewString(),
		Type:   TypeSensorSample,
		Source: r.source,
		Data: value.Object(map[string]value.Value{
			"name":    value.String(name),
			"reading": v,
		}),
	}
	if err := r.storage.Insert(ctx, rec); err != nil {
		r.logger.Warn("failed to persist sensor sample", "name", name, "error", err)
	}
}

// LastN implements expr.HistoryProvider over the in-memory ring.
func (r *Recorder) LastN(name string, n int) []value.Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	ring := r.samples[name]
	if n < len(ring) {
		ring = ring[len(ring)-n:]
	}
	out := make([]value.Value, len(ring))
	copy(out, ring)
	return out
}

// RecordRuleExecution captures the outcome of a rule fire.
func (r *Recorder) RecordRuleExecution(ctx context.Context, ruleID string, actions int, success bool, duration time.Duration) {
	if r.tsdb != nil {
		r.tsdb.WriteRuleFire(ruleID, float64(duration.Milliseconds()))
	}
	if r.storage == nil {
		return
	}
	rec := store.Record{
		ID:     uuid.NewString(),
		Type:   TypeRuleExecution,
		Source: r.source,
		Data: value.Object(map[string]value.Value{
			"rule_id":     value.String(ruleID),
			"actions":     value.Int(int64(actions)),
			"success":     value.Bool(success),
			"duration_ms": value.Int(duration.Milliseconds()),
		}),
	}
	if err := r.storage.Insert(ctx, rec); err != nil {
		r.logger.Warn("failed to persist rule execution", "rule_id", ruleID, "error", err)
	}
}

// RuleExecutions pages the stored execution history of one rule (all
// rules when ruleID is empty).
func (r *Recorder) RuleExecutions(ctx context.Context, ruleID string, offset, limit int) (store.Result, error) {
	conditions := []store.Condition{
		store.Cond("type", "==", value.String(TypeRuleExecution)),
	}
	if ruleID != "" {
		conditions = append(conditions, store.Cond("data.rule_id", "==", value.String(ruleID)))
	}
	return r.storage.Query(ctx, conditions, offset, limit)
}

// SensorSamples pages the stored samples of one variable (all variables
// when name is empty).
func (r *Recorder) SensorSamples(ctx context.Context, name string, offset, limit int) (store.Result, error) {
	conditions := []store.Condition{
		store.Cond("type", "==", value.String(TypeSensorSample)),
	}
	if name != "" {
		conditions = append(conditions, store.Cond("data.name", "==", value.String(name)))
	}
	return r.storage.Query(ctx, conditions, offset, limit)
}

// RuleSuccessRate computes the stored success ratio of one rule; 0 when
// it never executed.
func (r *Recorder) RuleSuccessRate(ctx context.Context, ruleID string) (float64, error) {
	total, err := r.storage.Count(ctx, []store.Condition{
		store.Cond("type", "==", value.String(TypeRuleExecution)),
		store.Cond("data.rule_id", "==", value.String(ruleID)),
	})
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	succeeded, err := r.storage.Count(ctx, []store.Condition{
		store.Cond("type", "==", value.String(TypeRuleExecution)),
		store.Cond("data.rule_id", "==", value.String(ruleID)),
		store.Cond("data.success", "==", value.Bool(true)),
	})
	if err != nil {
		return 0, err
	}
	return float64(succeeded) / float64(total), nil
}

// Cleanup drops stored history older than the cutoff.
func (r *Recorder) Cleanup(ctx context.Context, before time.Time) (int, error) {
	if r.storage == nil {
		return 0, nil
	}
	return r.storage.Cleanup(ctx, before)
}
