package expr

import (
	"github.com/calloway/automata-core/internal/value"
)

// Node is a single node in a pre-parsed expression tree.
//
// Trees arrive from configuration JSON already structured; there is no
// string-precedence parser. Nodes are pure: evaluation never mutates the
// context.
type Node interface {
	eval(e *Evaluator, ctx *value.Context) value.Value
}

// Literal holds a constant value.
type Literal struct {
	Value value.Value
}

func (n *Literal) eval(_ *Evaluator, _ *value.Context) value.Value {
	return n.Value
}

// Var reads a context variable. Missing variables read as null.
type Var struct {
	Name string
}

func (n *Var) eval(_ *Evaluator, ctx *value.Context) value.Value {
	return ctx.Get(n.Name)
}

// BinOp applies a binary operator to two child expressions.
//
// Operands evaluate left to right. Supported operators: + - * / %,
// == != > < >= <=, && ||.
type BinOp struct {
	Op    string
	Left  Node
	Right Node
}

func (n *BinOp) eval(e *Evaluator, ctx *value.Context) value.Value {
	if n.Left == nil || n.Right == nil {
		return value.Null()
	}
	left := n.Left.eval(e, ctx)
	right := n.Right.eval(e, ctx)
	return applyBinOp(n.Op, left, right)
}

// Call invokes a built-in function by name.
//
// Functions require exact arity; a wrong argument count evaluates to null.
type Call struct {
	Func string
	Args []Node
}

func (n *Call) eval(e *Evaluator, ctx *value.Context) value.Value {
	return e.call(n, ctx)
}

// Evaluator evaluates expression trees against a context.
//
// An optional HistoryProvider backs the historical aggregate functions
// (avg_last_n, max_last_n, trend). Without one, those functions fall back
// to the variable's current value.
//
// Thread Safety: Evaluator holds no mutable state; a single instance may
// be shared across goroutines as long as each call uses its own Context.
type Evaluator struct {
	history HistoryProvider
	clock   func() int64 // epoch milliseconds, swappable for tests
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithHistory installs the history provider backing the last-n aggregate
// functions.
func WithHistory(h HistoryProvider) Option {
	return func(e *Evaluator) { e.history = h }
}

// WithClock overrides the wall clock used by the time functions.
// Intended for tests.
func WithClock(nowMillis func() int64) Option {
	return func(e *Evaluator) { e.clock = nowMillis }
}

// NewEvaluator creates an evaluator.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate evaluates a tree against ctx.
//
// Any panic raised during evaluation is recovered and surfaced as null;
// errors never propagate across the tick boundary.
func (e *Evaluator) Evaluate(n Node, ctx *value.Context) (result value.Value) {
	defer func() {
		if r := recover(); r != nil {
			result = value.Null()
		}
	}()
	if n == nil {
		return value.Null()
	}
	return n.eval(e, ctx)
}

// EvaluateBool evaluates a tree and coerces the result to a bool via
// truthiness.
func (e *Evaluator) EvaluateBool(n Node, ctx *value.Context) bool {
	return e.Evaluate(n, ctx).Truthy()
}
