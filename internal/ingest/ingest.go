// Package ingest feeds MQTT sensor readings into the engine tick
// context.
//
// Hardware-facing processes publish readings under automata/sensor/{id};
// the ingestor keeps the latest value per sensor and copies the snapshot
// into each tick's context. Every accepted reading is also handed to the
// history recorder so the expression evaluator's last-n aggregates see
// the full stream.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/calloway/automata-core/internal/infrastructure/mqtt"
	"github.com/calloway/automata-core/internal/metrics"
	"github.com/calloway/automata-core/internal/value"
)

// Recorder receives every accepted sensor reading. Implemented by the
// history recorder; may be nil.
type Recorder interface {
	RecordSample(ctx context.Context, name string, v value.Value)
}

// Subscriber is the slice of the MQTT client the ingestor needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Logger is the logging interface the ingestor needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Ingestor tracks the latest reading of every sensor.
//
// Thread Safety: all methods are safe for concurrent use; MQTT handlers
// run on paho's goroutines while ApplyTo runs on the tick thread.
type Ingestor struct {
	mu       sync.RWMutex
	latest   map[string]value.Value
	recorder Recorder
	logger   Logger
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithRecorder installs the history recorder fed by every reading.
func WithRecorder(r Recorder) Option {
	return func(i *Ingestor) { i.recorder = r }
}

// WithLogger installs the ingestor logger.
func WithLogger(l Logger) Option {
	return func(i *Ingestor) {
		if l != nil {
			i.logger = l
		}
	}
}

// New creates an ingestor.
func New(opts ...Option) *Ingestor {
	ing := &Ingestor{
		latest: make(map[string]value.Value),
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Attach subscribes the ingestor to all sensor reading topics.
func (i *Ingestor) Attach(client Subscriber) error {
	topic := mqtt.Topics{}.AllSensorReadings()
	if err := client.Subscribe(topic, 1, i.handleMessage); err != nil {
		return fmt.Errorf("subscribing to sensor readings: %w", err)
	}
	return nil
}

// handleMessage parses one reading publication.
//
// Payloads are either a bare JSON scalar (`21.5`, `true`, `"open"`) or
// an object carrying a "value" member; anything else is stored as-is so
// structured sensors still reach the context.
func (i *Ingestor) handleMessage(topic string, payload []byte) error {
	sensorID := mqtt.SensorIDFromTopic(topic)
	if sensorID == "" {
		return nil
	}

	var raw any
	if err := json.Unmarshal(payload, &raw); err != nil {
		i.logger.Warn("unparseable sensor payload", "topic", topic, "error", err)
		return nil
	}
	reading := value.FromAny(raw)
	if reading.IsObject() {
		if v := reading.Field("value"); !v.IsNull() {
			reading = v
		}
	}

	i.Set(sensorID, reading)
	return nil
}

// Set stores a reading directly. Used by tests and by hosts that inject
// readings without MQTT.
func (i *Ingestor) Set(sensorID string, reading value.Value) {
	i.mu.Lock()
	i.latest[sensorID] = reading
	i.mu.Unlock()

	metrics.SensorUpdates.Inc()
	i.logger.Debug("sensor reading", "sensor", sensorID, "value", reading.String())

	if i.recorder != nil {
		i.recorder.RecordSample(context.Background(), sensorID, reading)
	}
}

// ApplyTo copies the latest reading of every sensor into the tick
// context.
func (i *Ingestor) ApplyTo(ctx *value.Context) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	for name, reading := range i.latest {
		ctx.Set(name, reading)
	}
}

// Get returns the latest reading of one sensor (null when never seen).
func (i *Ingestor) Get(sensorID string) value.Value {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.latest[sensorID]
}

// SensorCount returns the number of sensors seen so far.
func (i *Ingestor) SensorCount() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.latest)
}
