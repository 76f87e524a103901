package behavior

import (
	"testing"

	"github.com/calloway/automata-core/internal/value"
)

// scripted returns a fixed sequence of statuses and counts its ticks.
// After the script is exhausted it repeats the final status.
type scripted struct {
	script []Status
	ticks  int
	resets int
}

func (s *scripted) Execute(_ *value.Context) Status {
	i := s.ticks
	s.ticks++
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	return s.script[i]
}

func (s *scripted) Reset() { s.resets++ }

// constant always returns the same status.
func constant(st Status) *scripted { return &scripted{script: []Status{st}} }

func ctx() *value.Context { return value.NewContext() }

func TestSequence_StopsAtFirstFailure(t *testing.T) {
	children := []*scripted{
		constant(Success), constant(Success), constant(Failure), constant(Success),
	}
	seq := &Sequence{Children: []Node{children[0], children[1], children[2], children[3]}}

	if got := seq.Execute(ctx()); got != Failure {
		t.Errorf("status = %v, want failure", got)
	}
	wantTicks := []int{1, 1, 1, 0}
	for i, c := range children {
		if c.ticks != wantTicks[i] {
			t.Errorf("child %d ticked %d times, want %d", i, c.ticks, wantTicks[i])
		}
	}
}

func TestSequence_RunningShortCircuits(t *testing.T) {
	late := constant(Success)
	seq := &Sequence{Children: []Node{constant(Success), constant(Running), late}}
	if got := seq.Execute(ctx()); got != Running {
		t.Errorf("status = %v, want running", got)
	}
	if late.ticks != 0 {
		t.Error("child after Running should not tick")
	}
}

func TestSequence_AllSuccess(t *testing.T) {
	seq := &Sequence{Children: []Node{constant(Success), constant(Success)}}
	if got := seq.Execute(ctx()); got != Success {
		t.Errorf("status = %v, want success", got)
	}
}

func TestSelector_StopsAtFirstSuccess(t *testing.T) {
	children := []*scripted{
		constant(Failure), constant(Failure), constant(Success), constant(Failure),
	}
	sel := &Selector{Children: []Node{children[0], children[1], children[2], children[3]}}

	if got := sel.Execute(ctx()); got != Success {
		t.Errorf("status = %v, want success", got)
	}
	wantTicks := []int{1, 1, 1, 0}
	for i, c := range children {
		if c.ticks != wantTicks[i] {
			t.Errorf("child %d ticked %d times, want %d", i, c.ticks, wantTicks[i])
		}
	}
}

func TestSelector_AllFailure(t *testing.T) {
	sel := &Selector{Children: []Node{constant(Failure), constant(Failure)}}
	if got := sel.Execute(ctx()); got != Failure {
		t.Errorf("status = %v, want failure", got)
	}
}

func TestParallel_Policies(t *testing.T) {
	mk := func(statuses ...Status) []Node {
		nodes := make([]Node, len(statuses))
		for i, st := range statuses {
			nodes[i] = constant(st)
		}
		return nodes
	}

	tests := []struct {
		name     string
		policy   ParallelPolicy
		children []Node
		want     Status
	}{
		{"succeed_on_one with a success", SucceedOnOne, mk(Failure, Success, Running), Success},
		{"succeed_on_one running only", SucceedOnOne, mk(Failure, Running), Running},
		{"succeed_on_one all failure", SucceedOnOne, mk(Failure, Failure), Failure},
		{"succeed_on_all with a failure", SucceedOnAll, mk(Success, Failure), Failure},
		{"succeed_on_all with running", SucceedOnAll, mk(Success, Running), Running},
		{"succeed_on_all all success", SucceedOnAll, mk(Success, Success), Success},
		{"fail_on_one matches succeed_on_all", FailOnOne, mk(Success, Failure), Failure},
		{"fail_on_all with a success", FailOnAll, mk(Failure, Success), Success},
		{"fail_on_all all failure", FailOnAll, mk(Failure, Failure), Failure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Parallel{Policy: tt.policy, Children: tt.children}
			if got := p.Execute(ctx()); got != tt.want {
				t.Errorf("status = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParallel_TicksEveryChildOnce(t *testing.T) {
	children := []*scripted{constant(Success), constant(Failure), constant(Running)}
	p := &Parallel{Policy: SucceedOnOne, Children: []Node{children[0], children[1], children[2]}}
	p.Execute(ctx())
	for i, c := range children {
		if c.ticks != 1 {
			t.Errorf("child %d ticked %d times, want exactly 1", i, c.ticks)
		}
	}
}

func TestParallel_EmptySucceeds(t *testing.T) {
	p := &Parallel{Policy: SucceedOnAll}
	if got := p.Execute(ctx()); got != Success {
		t.Errorf("empty parallel = %v, want success", got)
	}
}

func TestInverter(t *testing.T) {
	if got := (&Inverter{Child: constant(Success)}).Execute(ctx()); got != Failure {
		t.Errorf("inverted success = %v, want failure", got)
	}
	if got := (&Inverter{Child: constant(Failure)}).Execute(ctx()); got != Success {
		t.Errorf("inverted failure = %v, want success", got)
	}
	if got := (&Inverter{Child: constant(Running)}).Execute(ctx()); got != Running {
		t.Errorf("inverted running = %v, want running", got)
	}
	if got := (&Inverter{}).Execute(ctx()); got != Failure {
		t.Errorf("childless inverter = %v, want failure", got)
	}
}

func TestRepeater_FiniteCount(t *testing.T) {
	child := constant(Success)
	rep := &Repeater{Count: 3, Child: child}

	// One success per tick: three Running ticks, then Success without
	// ticking the child again.
	for i := 0; i < 3; i++ {
		if got := rep.Execute(ctx()); got != Running {
			t.Fatalf("tick %d = %v, want running", i+1, got)
		}
	}
	if got := rep.Execute(ctx()); got != Success {
		t.Errorf("fourth tick = %v, want success", got)
	}
	if child.ticks != 3 {
		t.Errorf("child ticked %d times, want 3", child.ticks)
	}
	if child.resets != 3 {
		t.Errorf("child reset %d times, want 3", child.resets)
	}
}

func TestRepeater_ChildFailureFails(t *testing.T) {
	child := &scripted{script: []Status{Success, Failure}}
	rep := &Repeater{Count: 5, Child: child}

	if got := rep.Execute(ctx()); got != Running {
		t.Fatalf("first tick = %v, want running", got)
	}
	if got := rep.Execute(ctx()); got != Failure {
		t.Errorf("second tick = %v, want failure", got)
	}
}

func TestRepeater_RunningPassesThrough(t *testing.T) {
	child := constant(Running)
	rep := &Repeater{Count: 2, Child: child}
	if got := rep.Execute(ctx()); got != Running {
		t.Errorf("status = %v, want running", got)
	}
	if child.resets != 0 {
		t.Error("running child should not be reset")
	}
}

func TestRepeater_InfiniteAlwaysRunning(t *testing.T) {
	child := constant(Success)
	rep := &Repeater{Count: -1, Child: child}
	for i := 0; i < 10; i++ {
		if got := rep.Execute(ctx()); got != Running {
			t.Fatalf("tick %d = %v, want running", i, got)
		}
	}
	if child.ticks != 10 {
		t.Errorf("child ticked %d times, want 10", child.ticks)
	}
	if child.resets != 10 {
		t.Errorf("child reset %d times, want 10 (after each success)", child.resets)
	}
}

func TestRepeater_ResetClearsCount(t *testing.T) {
	rep := &Repeater{Count: 2, Child: constant(Success)}
	rep.Execute(ctx())
	rep.Execute(ctx())
	if got := rep.Execute(ctx()); got != Success {
		t.Fatalf("status = %v, want success", got)
	}
	rep.Reset()
	if got := rep.Execute(ctx()); got != Running {
		t.Errorf("status after reset = %v, want running (count cleared)", got)
	}
}

func TestUntilFail(t *testing.T) {
	child := &scripted{script: []Status{Success, Success, Failure}}
	uf := &UntilFail{Child: child}
	if got := uf.Execute(ctx()); got != Success {
		t.Errorf("status = %v, want success once child fails", got)
	}
	if child.ticks != 3 {
		t.Errorf("child ticked %d times, want 3", child.ticks)
	}
	if child.resets != 2 {
		t.Errorf("child reset %d times, want 2 (after each success)", child.resets)
	}
}

func TestUntilFail_RunningYields(t *testing.T) {
	uf := &UntilFail{Child: constant(Running)}
	if got := uf.Execute(ctx()); got != Running {
		t.Errorf("status = %v, want running", got)
	}
}

func TestUntilFail_LoopCapYieldsRunning(t *testing.T) {
	child := constant(Success) // never fails
	uf := &UntilFail{Child: child}
	if got := uf.Execute(ctx()); got != Running {
		t.Errorf("status = %v, want running at loop cap", got)
	}
	if child.ticks != loopCap {
		t.Errorf("child ticked %d times, want cap %d", child.ticks, loopCap)
	}
}

func TestUntilSuccess(t *testing.T) {
	child := &scripted{script: []Status{Failure, Failure, Success}}
	us := &UntilSuccess{Child: child}
	if got := us.Execute(ctx()); got != Success {
		t.Errorf("status = %v, want success", got)
	}
	if child.ticks != 3 {
		t.Errorf("child ticked %d times, want 3", child.ticks)
	}
}

func TestUntilSuccess_LoopCapYieldsRunning(t *testing.T) {
	us := &UntilSuccess{Child: constant(Failure)}
	if got := us.Execute(ctx()); got != Running {
		t.Errorf("status = %v, want running at loop cap", got)
	}
}

func TestActionLeaf_PanicIsFailure(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterAction("boom", func(*value.Context, value.Value) Status {
		panic("kaboom")
	})
	n := &Action{Ref: "boom", Params: value.Object(nil), registry: reg}
	if got := n.Execute(ctx()); got != Failure {
		t.Errorf("panicking action = %v, want failure", got)
	}
}

func TestActionLeaf_UnregisteredIsFailure(t *testing.T) {
	n := &Action{Ref: "missing", Params: value.Object(nil), registry: NewRegistry()}
	if got := n.Execute(ctx()); got != Failure {
		t.Errorf("unregistered action = %v, want failure", got)
	}
}

func TestConditionLeaf(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCondition("hot", func(c *value.Context, _ value.Value) bool {
		return c.Get("t").Int() > 40
	})

	n := &Condition{Ref: "hot", Params: value.Object(nil), registry: reg}
	c := value.NewContext()
	c.Set("t", value.Int(45))
	if got := n.Execute(c); got != Success {
		t.Errorf("true predicate = %v, want success", got)
	}
	c.Set("t", value.Int(30))
	if got := n.Execute(c); got != Failure {
		t.Errorf("false predicate = %v, want failure", got)
	}
}

// S5: repeater(3, sequence(a, b)) with deterministic successes.
func TestScenario_RepeaterOverSequence(t *testing.T) {
	reg := NewRegistry()
	invocations := map[string]int{}
	for _, name := range []string{"action_a", "action_b"} {
		n := name
		reg.RegisterAction(n, func(*value.Context, value.Value) Status {
			invocations[n]++
			return Success
		})
	}

	seq := &Sequence{Children: []Node{
		&Action{Ref: "action_a", Params: value.Object(nil), registry: reg},
		&Action{Ref: "action_b", Params: value.Object(nil), registry: reg},
	}}
	rep := &Repeater{Count: 3, Child: seq}

	c := value.NewContext()
	statuses := make([]Status, 0, 4)
	for i := 0; i < 4; i++ {
		statuses = append(statuses, rep.Execute(c))
	}

	for i := 0; i < 3; i++ {
		if statuses[i] != Running {
			t.Errorf("execute %d = %v, want running", i+1, statuses[i])
		}
	}
	if statuses[3] != Success {
		t.Errorf("execute 4 = %v, want success", statuses[3])
	}
	if invocations["action_a"] != 3 || invocations["action_b"] != 3 {
		t.Errorf("invocations = %v, want 3 each (6 total)", invocations)
	}
}
