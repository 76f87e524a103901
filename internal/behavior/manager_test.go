package behavior

import (
	"errors"
	"testing"

	"github.com/calloway/automata-core/internal/value"
)

const tinyTree = `{"root":{"type":"action","action":"ping"}}`

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(nil)
}

func TestManager_LoadAndExecute(t *testing.T) {
	m := newTestManager(t)
	pings := 0
	m.RegisterAction("ping", func(*value.Context, value.Value) Status {
		pings++
		return Success
	})

	if err := m.Load("probe", []byte(tinyTree)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := m.Execute("probe", value.NewContext()); got != Success {
		t.Errorf("status = %v, want success", got)
	}
	if pings != 1 {
		t.Errorf("pings = %d, want 1", pings)
	}
}

func TestManager_RegistrationReachesLaterTrees(t *testing.T) {
	m := newTestManager(t)
	if err := m.Load("probe", []byte(tinyTree)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Action registered after the tree loaded still resolves.
	m.RegisterAction("ping", func(*value.Context, value.Value) Status { return Success })
	if got := m.Execute("probe", value.NewContext()); got != Success {
		t.Errorf("status = %v, want success (late registration)", got)
	}
}

func TestManager_DuplicateNameRejected(t *testing.T) {
	m := newTestManager(t)
	if err := m.Load("probe", []byte(tinyTree)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	err := m.Load("probe", []byte(tinyTree))
	if !errors.Is(err, ErrTreeExists) {
		t.Errorf("error = %v, want ErrTreeExists", err)
	}
}

func TestManager_UnknownTreeFails(t *testing.T) {
	m := newTestManager(t)
	if got := m.Execute("ghost", value.NewContext()); got != Failure {
		t.Errorf("status = %v, want failure", got)
	}
	if m.Pause("ghost") || m.Resume("ghost") || m.Reset("ghost") || m.Stop("ghost") {
		t.Error("operations on unknown tree should return false")
	}
}

func TestManager_InvalidTreeRejected(t *testing.T) {
	m := newTestManager(t)
	if err := m.Load("bad", []byte(`{"root":{"type":"nope"}}`)); err == nil {
		t.Fatal("expected error for unknown node type")
	}
	if m.Has("bad") {
		t.Error("rejected tree should not be registered")
	}
}

func TestManager_PauseReturnsCachedStatus(t *testing.T) {
	m := newTestManager(t)
	status := Success
	ticks := 0
	m.RegisterAction("ping", func(*value.Context, value.Value) Status {
		ticks++
		return status
	})
	if err := m.Load("probe", []byte(tinyTree)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	c := value.NewContext()
	m.Execute("probe", c) // Success cached
	m.Pause("probe")

	status = Failure
	if got := m.Execute("probe", c); got != Success {
		t.Errorf("paused execute = %v, want cached success", got)
	}
	if ticks != 1 {
		t.Errorf("ticks = %d, want 1 (paused tree does not tick)", ticks)
	}

	m.Resume("probe")
	if got := m.Execute("probe", c); got != Failure {
		t.Errorf("resumed execute = %v, want failure", got)
	}
}

func TestManager_Stats(t *testing.T) {
	m := newTestManager(t)
	results := []Status{Success, Failure, Running, Success}
	i := 0
	m.RegisterAction("ping", func(*value.Context, value.Value) Status {
		st := results[i]
		i++
		return st
	})
	if err := m.Load("probe", []byte(tinyTree)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	c := value.NewContext()
	for range results {
		m.Execute("probe", c)
	}

	stats, ok := m.Stats("probe")
	if !ok {
		t.Fatal("stats missing")
	}
	if stats.ExecutionCount != 4 || stats.SuccessCount != 2 || stats.FailureCount != 1 || stats.RunningCount != 1 {
		t.Errorf("stats = %+v, want 4/2/1/1", stats)
	}
}

func TestManager_RemoveAndClear(t *testing.T) {
	m := newTestManager(t)
	if err := m.Load("a", []byte(tinyTree)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := m.Load("b", []byte(tinyTree)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !m.Remove("a") {
		t.Error("Remove(a) = false, want true")
	}
	if m.Remove("a") {
		t.Error("second Remove(a) = true, want false")
	}
	if len(m.Names()) != 1 {
		t.Errorf("names = %v, want one entry", m.Names())
	}

	m.Clear()
	if len(m.Names()) != 0 {
		t.Error("Clear should unload all trees")
	}
}

func TestManager_Replace(t *testing.T) {
	m := newTestManager(t)
	m.RegisterAction("ping", func(*value.Context, value.Value) Status { return Success })
	m.RegisterAction("pong", func(*value.Context, value.Value) Status { return Failure })

	if err := m.Load("probe", []byte(tinyTree)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := m.Replace("probe", []byte(`{"root":{"type":"action","action":"pong"}}`)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if got := m.Execute("probe", value.NewContext()); got != Failure {
		t.Errorf("status = %v, want failure from replaced tree", got)
	}
}
