package behavior

import "github.com/calloway/automata-core/internal/value"

// loopCap bounds the per-tick iteration count of UntilFail and
// UntilSuccess so a child that never returns the terminating status
// cannot livelock the tick thread. Hitting the cap yields Running.
const loopCap = 1024

// Inverter flips its child's terminal status; Running passes through.
// A missing child is Failure.
type Inverter struct {
	Child Node
}

func (n *Inverter) Execute(ctx *value.Context) Status {
	if n.Child == nil {
		return Failure
	}
	switch n.Child.Execute(ctx) {
	case Success:
		return Failure
	case Failure:
		return Success
	default:
		return Running
	}
}

func (n *Inverter) Reset() {
	if n.Child != nil {
		n.Child.Reset()
	}
}

// Repeater re-runs its child for a fixed number of successes.
//
// Count -1 repeats forever: each tick runs the child once and reports
// Running (the child is reset after each Success). Count n >= 0 advances
// one child-success per tick; once n successes have accumulated the
// next tick reports Success without running the child. A child Failure
// fails the repeater; Running passes through without consuming a count.
type Repeater struct {
	Count   int
	Child   Node
	current int
}

func (n *Repeater) Execute(ctx *value.Context) Status {
	if n.Child == nil {
		return Failure
	}

	if n.Count < 0 {
		if n.Child.Execute(ctx) == Success {
			n.Child.Reset()
		}
		return Running
	}

	if n.current >= n.Count {
		return Success
	}

	switch n.Child.Execute(ctx) {
	case Success:
		n.current++
		n.Child.Reset()
		return Running
	case Failure:
		return Failure
	default:
		return Running
	}
}

func (n *Repeater) Reset() {
	n.current = 0
	if n.Child != nil {
		n.Child.Reset()
	}
}

// UntilFail re-runs its child until it fails, then succeeds. A Running
// child yields Running; each child Success resets the child and loops,
// bounded by loopCap iterations per tick.
type UntilFail struct {
	Child Node
}

func (n *UntilFail) Execute(ctx *value.Context) Status {
	if n.Child == nil {
		return Failure
	}
	for i := 0; i < loopCap; i++ {
		switch n.Child.Execute(ctx) {
		case Failure:
			return Success
		case Running:
			return Running
		}
		n.Child.Reset()
	}
	return Running
}

func (n *UntilFail) Reset() {
	if n.Child != nil {
		n.Child.Reset()
	}
}

// UntilSuccess is the mirror of UntilFail: it re-runs its child until it
// succeeds.
type UntilSuccess struct {
	Child Node
}

func (n *UntilSuccess) Execute(ctx *value.Context) Status {
	if n.Child == nil {
		return Failure
	}
	for i := 0; i < loopCap; i++ {
		switch n.Child.Execute(ctx) {
		case Success:
			return Success
		case Running:
			return Running
		}
		n.Child.Reset()
	}
	return Running
}

func (n *UntilSuccess) Reset() {
	if n.Child != nil {
		n.Child.Reset()
	}
}
