package behavior

import (
	"fmt"
	"os"
	"sync"

	"github.com/calloway/automata-core/internal/metrics"
	"github.com/calloway/automata-core/internal/value"
)

// Logger is the logging interface the manager needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Manager is the named-tree registry.
//
// It owns one leaf Registry shared by every executor, so registering an
// action or condition once makes it visible to all loaded trees,
// including trees loaded later.
//
// Thread Safety: all methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	trees    map[string]*Executor
	registry *Registry
	logger   Logger
}

// NewManager creates an empty manager.
func NewManager(logger Logger) *Manager {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Manager{
		trees:    make(map[string]*Executor),
		registry: NewRegistry(),
		logger:   logger,
	}
}

// RegisterAction registers an action leaf implementation for all trees.
func (m *Manager) RegisterAction(name string, fn ActionFunc) {
	m.registry.RegisterAction(name, fn)
}

// RegisterCondition registers a condition leaf predicate for all trees.
func (m *Manager) RegisterCondition(name string, fn ConditionFunc) {
	m.registry.RegisterCondition(name, fn)
}

// Load parses tree JSON and registers it under name. Loading over an
// existing name is rejected with ErrTreeExists; parse failures leave
// the registry untouched.
func (m *Manager) Load(name string, data []byte) error {
	root, err := Parse(data, m.registry)
	if err != nil {
		m.logger.Error("behavior tree parse failed", "tree", name, "error", err)
		return err
	}
	return m.install(name, root)
}

// LoadValue is Load for an already-decoded document.
func (m *Manager) LoadValue(name string, doc value.Value) error {
	root, err := ParseValue(doc, m.registry)
	if err != nil {
		m.logger.Error("behavior tree parse failed", "tree", name, "error", err)
		return err
	}
	return m.install(name, root)
}

// LoadFile reads and parses a tree JSON file.
func (m *Manager) LoadFile(name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading tree file: %w", err)
	}
	return m.Load(name, data)
}

// Replace swaps the tree under an existing (or new) name. Used by the
// hot-reload path.
func (m *Manager) Replace(name string, data []byte) error {
	root, err := Parse(data, m.registry)
	if err != nil {
		m.logger.Error("behavior tree parse failed", "tree", name, "error", err)
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trees[name] = NewExecutor(root)
	m.logger.Info("behavior tree replaced", "tree", name)
	return nil
}

func (m *Manager) install(name string, root Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.trees[name]; exists {
		return fmt.Errorf("%w: %q", ErrTreeExists, name)
	}
	m.trees[name] = NewExecutor(root)
	m.logger.Info("behavior tree loaded", "tree", name)
	return nil
}

// Execute ticks the named tree. Unknown names return Failure.
func (m *Manager) Execute(name string, ctx *value.Context) Status {
	ex := m.executor(name)
	if ex == nil {
		m.logger.Warn("behavior tree not found", "tree", name)
		return Failure
	}
	status := ex.Execute(ctx)
	metrics.TreeExecutions.WithLabelValues(name, status.String()).Inc()
	return status
}

// Pause freezes the named tree.
func (m *Manager) Pause(name string) bool {
	ex := m.executor(name)
	if ex == nil {
		return false
	}
	ex.Pause()
	return true
}

// Resume lifts a pause on the named tree.
func (m *Manager) Resume(name string) bool {
	ex := m.executor(name)
	if ex == nil {
		return false
	}
	ex.Resume()
	return true
}

// Reset resets the named tree's node state and flags.
func (m *Manager) Reset(name string) bool {
	ex := m.executor(name)
	if ex == nil {
		return false
	}
	ex.Reset()
	return true
}

// Stop halts the named tree.
func (m *Manager) Stop(name string) bool {
	ex := m.executor(name)
	if ex == nil {
		return false
	}
	ex.Stop()
	return true
}

// Status returns the last-tick status of the named tree.
func (m *Manager) Status(name string) (Status, bool) {
	ex := m.executor(name)
	if ex == nil {
		return Failure, false
	}
	return ex.Status(), true
}

// Stats returns the execution counters of the named tree.
func (m *Manager) Stats(name string) (Stats, bool) {
	ex := m.executor(name)
	if ex == nil {
		return Stats{}, false
	}
	return ex.Stats(), true
}

// AllStats returns counters for every loaded tree.
func (m *Manager) AllStats() map[string]Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Stats, len(m.trees))
	for name, ex := range m.trees {
		out[name] = ex.Stats()
	}
	return out
}

// Has reports whether a tree is loaded under name.
func (m *Manager) Has(name string) bool {
	return m.executor(name) != nil
}

// Names returns the loaded tree names.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.trees))
	for name := range m.trees {
		names = append(names, name)
	}
	return names
}

// TreeValue renders the named tree back into its document form.
func (m *Manager) TreeValue(name string) (value.Value, bool) {
	ex := m.executor(name)
	if ex == nil {
		return value.Null(), false
	}
	return ToValue(ex.Root()), true
}

// Remove unloads the named tree.
func (m *Manager) Remove(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trees[name]; !ok {
		return false
	}
	delete(m.trees, name)
	return true
}

// Clear unloads every tree. Registered actions and conditions survive.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trees = make(map[string]*Executor)
}

func (m *Manager) executor(name string) *Executor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trees[name]
}
