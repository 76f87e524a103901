package behavior

import "github.com/calloway/automata-core/internal/value"

// Sequence ticks children in order and succeeds only if every child
// succeeds. The first Failure or Running child ends the pass with that
// status; later children are not ticked.
type Sequence struct {
	Children []Node
}

func (n *Sequence) Execute(ctx *value.Context) Status {
	for _, child := range n.Children {
		switch child.Execute(ctx) {
		case Failure:
			return Failure
		case Running:
			return Running
		}
	}
	return Success
}

func (n *Sequence) Reset() {
	for _, child := range n.Children {
		child.Reset()
	}
}

// Selector ticks children in order and succeeds on the first child that
// succeeds. The first Success or Running child ends the pass; an
// all-Failure pass is Failure.
type Selector struct {
	Children []Node
}

func (n *Selector) Execute(ctx *value.Context) Status {
	for _, child := range n.Children {
		switch child.Execute(ctx) {
		case Success:
			return Success
		case Running:
			return Running
		}
	}
	return Failure
}

func (n *Selector) Reset() {
	for _, child := range n.Children {
		child.Reset()
	}
}

// ParallelPolicy selects how a Parallel node combines child results.
type ParallelPolicy int

const (
	// SucceedOnOne: any Success wins; else any Running keeps going;
	// else Failure.
	SucceedOnOne ParallelPolicy = iota
	// SucceedOnAll: any Failure fails; else any Running keeps going;
	// else Success.
	SucceedOnAll
	// FailOnOne behaves identically to SucceedOnAll.
	FailOnOne
	// FailOnAll: any Success wins; else any Running keeps going; else
	// Failure.
	FailOnAll
)

// String returns the configuration spelling of the policy.
func (p ParallelPolicy) String() string {
	switch p {
	case SucceedOnAll:
		return "succeed_on_all"
	case FailOnOne:
		return "fail_on_one"
	case FailOnAll:
		return "fail_on_all"
	default:
		return "succeed_on_one"
	}
}

// Parallel ticks every child exactly once per Execute and combines the
// results per its policy. An empty Parallel succeeds.
type Parallel struct {
	Policy   ParallelPolicy
	Children []Node
}

func (n *Parallel) Execute(ctx *value.Context) Status {
	if len(n.Children) == 0 {
		return Success
	}

	var successes, failures, running int
	for _, child := range n.Children {
		switch child.Execute(ctx) {
		case Success:
			successes++
		case Failure:
			failures++
		case Running:
			running++
		}
	}

	switch n.Policy {
	case SucceedOnAll, FailOnOne:
		if failures > 0 {
			return Failure
		}
		if running > 0 {
			return Running
		}
		return Success
	default: // SucceedOnOne, FailOnAll
		if successes > 0 {
			return Success
		}
		if running > 0 {
			return Running
		}
		return Failure
	}
}

func (n *Parallel) Reset() {
	for _, child := range n.Children {
		child.Reset()
	}
}
