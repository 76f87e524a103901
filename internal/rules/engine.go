package rules

import (
	"sort"
	"sync"
	"time"

	"github.com/calloway/automata-core/internal/expr"
	"github.com/calloway/automata-core/internal/metrics"
	"github.com/calloway/automata-core/internal/value"
)

// ActionFunc is a caller-supplied side-effect invoked when a rule fires.
//
// Params is the action's configured parameter object; ctx is the live
// tick context and may be written to (later actions in the same rule
// observe the writes). Panics are recovered and logged by the engine.
type ActionFunc func(params value.Value, ctx *value.Context)

// FireListener observes successful rule fires. Used by the history
// recorder and the WebSocket hub; may be nil.
type FireListener func(ruleID string, actions []ActionStep)

// Logger is the logging interface the engine needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Engine owns the rule set and drives evaluation.
//
// The host registers actions, loads a rules document, then calls Tick
// with a fresh context as often as it likes. Rules fire in priority
// order (ties by id); action callbacks run in declared order and are
// isolated from each other: a panicking or unknown action never stops
// later actions or later rules.
//
// Thread Safety:
//   - All public methods are safe for concurrent use. The engine mutex
//     is held for the full duration of Tick, so mutation APIs called
//     from other goroutines serialise against the tick pass as the
//     concurrency model requires.
type Engine struct {
	mu      sync.Mutex
	actions map[string]ActionFunc
	rules   []*Rule
	groups  map[string]bool // only explicitly disabled groups are stored as false

	eval     *expr.Evaluator
	logger   Logger
	nowMS    func() uint64
	onFire   FireListener
	baseTime time.Time
}

// EngineOption configures a new Engine.
type EngineOption func(*Engine)

// WithEvaluator installs a pre-built expression evaluator (typically one
// carrying a history provider).
func WithEvaluator(e *expr.Evaluator) EngineOption {
	return func(en *Engine) { en.eval = e }
}

// WithLogger installs the engine logger.
func WithLogger(l Logger) EngineOption {
	return func(en *Engine) {
		if l != nil {
			en.logger = l
		}
	}
}

// WithClock overrides the monotonic millisecond clock. Intended for
// tests.
func WithClock(nowMS func() uint64) EngineOption {
	return func(en *Engine) { en.nowMS = nowMS }
}

// WithFireListener installs a callback observing successful fires.
func WithFireListener(fn FireListener) EngineOption {
	return func(en *Engine) { en.onFire = fn }
}

// NewEngine creates an empty engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		actions:  make(map[string]ActionFunc),
		groups:   make(map[string]bool),
		logger:   noopLogger{},
		baseTime: time.Now(),
	}
	e.nowMS = func() uint64 {
		// time.Since reads the monotonic clock, so throttle arithmetic
		// is immune to wall-clock jumps.
		return uint64(time.Since(e.baseTime).Milliseconds()) + 1
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.eval == nil {
		e.eval = expr.NewEvaluator()
	}
	return e
}

// SetFireListener installs (or replaces) the callback observing
// successful fires. Pass nil to remove it.
func (e *Engine) SetFireListener(fn FireListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onFire = fn
}

// RegisterAction registers a named action callback. Re-registering a
// name replaces the previous callback.
func (e *Engine) RegisterAction(name string, fn ActionFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.actions[name] = fn
}

// Tick runs one evaluation pass over all rules with the given context.
//
// Within the pass rules fire in strict priority order and each rule's
// actions fire in declared order; there is no intra-tick parallelism.
func (e *Engine) Tick(ctx *value.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	started := time.Now()
	now := e.nowMS()

	for _, rule := range e.rules {
		if !rule.readyAt(now) {
			continue
		}
		if !e.groupEnabledLocked(rule.Group) {
			continue
		}
		if !rule.Condition.Eval(e.eval, ctx) {
			continue
		}

		for _, step := range rule.Actions {
			e.invokeAction(rule.ID, step, ctx)
		}

		rule.markFired(now)
		metrics.RuleFires.WithLabelValues(rule.ID).Inc()
		if e.onFire != nil {
			e.onFire(rule.ID, rule.Actions)
		}
	}

	metrics.TicksTotal.Inc()
	metrics.TickDuration.Observe(float64(time.Since(started).Microseconds()) / 1000.0)
}

// invokeAction runs a single action step with panic isolation.
func (e *Engine) invokeAction(ruleID string, step ActionStep, ctx *value.Context) {
	fn, ok := e.actions[step.Name]
	if !ok {
		e.logger.Warn("unknown action", "rule_id", ruleID, "action", step.Name)
		metrics.ActionErrors.WithLabelValues(ruleID, "unknown").Inc()
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("action panicked",
				"rule_id", ruleID,
				"action", step.Name,
				"panic", r,
			)
			metrics.ActionErrors.WithLabelValues(ruleID, "panic").Inc()
		}
	}()
	fn(step.Params, ctx)
}

// EnableRule clears a rule's disabled flag. Returns false for an unknown
// id. Throttle state is deliberately preserved across disable/enable.
func (e *Engine) EnableRule(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.findLocked(id)
	if r == nil {
		return false
	}
	r.Disabled = false
	return true
}

// DisableRule sets a rule's disabled flag. Returns false for an unknown
// id.
func (e *Engine) DisableRule(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.findLocked(id)
	if r == nil {
		return false
	}
	r.Disabled = true
	return true
}

// EnableGroup re-enables a rule group.
func (e *Engine) EnableGroup(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.groups[name] = true
}

// DisableGroup suppresses every rule tagged with the group.
func (e *Engine) DisableGroup(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.groups[name] = false
}

// GroupEnabled reports the effective state of a group. Unknown groups
// are enabled: only an explicit DisableGroup suppresses rules.
func (e *Engine) GroupEnabled(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.groupEnabledLocked(name)
}

func (e *Engine) groupEnabledLocked(name string) bool {
	if name == "" {
		return true
	}
	enabled, known := e.groups[name]
	return !known || enabled
}

// SetRulePriority updates a rule's priority (clamped) and re-sorts the
// rule list. Returns false for an unknown id.
func (e *Engine) SetRulePriority(id string, priority int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.findLocked(id)
	if r == nil {
		return false
	}
	r.Priority = clampPriority(priority)
	e.sortLocked()
	return true
}

// Rule returns the read-only view of a rule.
func (e *Engine) Rule(id string) (Info, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.findLocked(id)
	if r == nil {
		return Info{}, false
	}
	return r.info(), true
}

// Rules returns read-only views of all rules in tick order.
func (e *Engine) Rules() []Info {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Info, len(e.rules))
	for i, r := range e.rules {
		out[i] = r.info()
	}
	return out
}

// RulesByGroup returns views of the rules tagged with the group.
func (e *Engine) RulesByGroup(group string) []Info {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Info
	for _, r := range e.rules {
		if r.Group == group {
			out = append(out, r.info())
		}
	}
	return out
}

// RuleCount returns the number of loaded rules.
func (e *Engine) RuleCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.rules)
}

// Clear removes all rules and group state.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = nil
	e.groups = make(map[string]bool)
}

// ExportState snapshots per-rule fire state for persistence.
func (e *Engine) ExportState() map[string]Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]Snapshot, len(e.rules))
	for _, r := range e.rules {
		out[r.ID] = Snapshot{LastFireMS: r.LastFireMS, Disabled: r.Disabled}
	}
	return out
}

// RestoreState applies persisted fire state to currently-loaded rules.
// Snapshots for unknown ids are ignored; LastFireMS never moves
// backwards.
func (e *Engine) RestoreState(state map[string]Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.rules {
		snap, ok := state[r.ID]
		if !ok {
			continue
		}
		if snap.LastFireMS > r.LastFireMS {
			r.LastFireMS = snap.LastFireMS
		}
		if snap.Disabled {
			r.Disabled = true
		}
	}
}

func (e *Engine) findLocked(id string) *Rule {
	for _, r := range e.rules {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (e *Engine) sortLocked() {
	sort.SliceStable(e.rules, func(i, j int) bool {
		return e.rules[i].less(e.rules[j])
	})
}
