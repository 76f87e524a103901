package behavior

import (
	"sync"

	"github.com/calloway/automata-core/internal/value"
)

// Stats counts executor outcomes.
type Stats struct {
	ExecutionCount int `json:"execution_count"`
	SuccessCount   int `json:"success_count"`
	FailureCount   int `json:"failure_count"`
	RunningCount   int `json:"running_count"`
}

// Executor drives a single behavior tree.
//
// It owns the root node, tracks run/pause flags and per-outcome
// statistics, and caches the last status so a paused tree reports its
// pre-pause state without ticking.
//
// Thread Safety: all methods are safe for concurrent use; ticks of the
// same executor serialise on its mutex.
type Executor struct {
	mu      sync.Mutex
	root    Node
	status  Status
	running bool
	paused  bool
	stats   Stats
}

// NewExecutor creates an executor over a parsed tree.
func NewExecutor(root Node) *Executor {
	return &Executor{root: root, status: Failure}
}

// Execute ticks the tree once.
//
// While paused it returns the cached status without ticking or counting.
func (ex *Executor) Execute(ctx *value.Context) Status {
	ex.mu.Lock()
	defer ex.mu.Unlock()

	if ex.root == nil {
		return Failure
	}
	if ex.paused {
		return ex.status
	}

	ex.running = true
	ex.status = ex.root.Execute(ctx)

	ex.stats.ExecutionCount++
	switch ex.status {
	case Success:
		ex.stats.SuccessCount++
	case Failure:
		ex.stats.FailureCount++
	case Running:
		ex.stats.RunningCount++
	}

	if ex.status != Running {
		ex.running = false
	}
	return ex.status
}

// Reset clears tree state, flags and the cached status. Statistics are
// preserved.
func (ex *Executor) Reset() {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	if ex.root != nil {
		ex.root.Reset()
	}
	ex.status = Failure
	ex.running = false
	ex.paused = false
}

// Pause freezes the tree; subsequent Execute calls return the cached
// status.
func (ex *Executor) Pause() {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	ex.paused = true
}

// Resume lifts a pause.
func (ex *Executor) Resume() {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	ex.paused = false
}

// Stop halts the tree and clears the cached status without resetting
// node state.
func (ex *Executor) Stop() {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	ex.running = false
	ex.paused = false
	ex.status = Failure
}

// Status returns the status of the most recent tick.
func (ex *Executor) Status() Status {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.status
}

// IsRunning reports whether the last tick left the tree mid-run and it
// is not paused.
func (ex *Executor) IsRunning() bool {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.running && !ex.paused
}

// Stats returns a copy of the execution counters.
func (ex *Executor) Stats() Stats {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.stats
}

// Root exposes the tree root for serialisation.
func (ex *Executor) Root() Node {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.root
}
