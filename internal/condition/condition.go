// Package condition implements the rule condition model: a simple
// comparison against a context variable, an all/any composite of
// sub-conditions, or a full expression tree.
//
// Evaluation short-circuits: All stops at the first false child, Any at
// the first true child. Empty All and Any composites both evaluate to
// false — a quirk inherited from the reference behaviour, kept
// deliberately (a rule with an empty composite never fires).
package condition

import (
	"github.com/calloway/automata-core/internal/expr"
	"github.com/calloway/automata-core/internal/value"
)

// Kind discriminates the condition variants.
type Kind int

const (
	// KindSimple compares a context variable against a literal.
	KindSimple Kind = iota
	// KindAll is true iff every sub-condition is true.
	KindAll
	// KindAny is true iff at least one sub-condition is true.
	KindAny
	// KindExpr truthy-coerces an expression result.
	KindExpr
)

// Condition is one node in a rule's condition tree.
type Condition struct {
	Kind Kind

	// Simple comparison fields.
	Left  string
	Op    string
	Right value.Value

	// Composite children (All / Any).
	Children []*Condition

	// Expression tree (Expr).
	Expr expr.Node
}

// Simple builds a left-op-right comparison condition.
func Simple(left, op string, right value.Value) *Condition {
	return &Condition{Kind: KindSimple, Left: left, Op: op, Right: right}
}

// All builds a conjunction of sub-conditions.
func All(children ...*Condition) *Condition {
	return &Condition{Kind: KindAll, Children: children}
}

// Any builds a disjunction of sub-conditions.
func Any(children ...*Condition) *Condition {
	return &Condition{Kind: KindAny, Children: children}
}

// Expr wraps an expression tree as a condition.
func Expr(node expr.Node) *Condition {
	return &Condition{Kind: KindExpr, Expr: node}
}

// Eval evaluates the condition against ctx using e for expression nodes.
//
// A nil condition evaluates to false; so do empty All/Any composites.
func (c *Condition) Eval(e *expr.Evaluator, ctx *value.Context) bool {
	if c == nil {
		return false
	}
	switch c.Kind {
	case KindSimple:
		left := ctx.Get(c.Left)
		return compare(left, c.Op, c.Right)

	case KindAll:
		if len(c.Children) == 0 {
			return false
		}
		for _, child := range c.Children {
			if !child.Eval(e, ctx) {
				return false
			}
		}
		return true

	case KindAny:
		for _, child := range c.Children {
			if child.Eval(e, ctx) {
				return true
			}
		}
		return false

	case KindExpr:
		return e.EvaluateBool(c.Expr, ctx)

	default:
		return false
	}
}

// compare applies a comparison operator using Value semantics: equality
// is deep with numeric promotion, ordering is defined only for
// number-number and string-string pairs, anything else is false.
func compare(a value.Value, op string, b value.Value) bool {
	switch op {
	case "==":
		return a.Equal(b)
	case "!=":
		return !a.Equal(b)
	case ">", "<", ">=", "<=":
		c, ok := a.Compare(b)
		if !ok {
			return false
		}
		switch op {
		case ">":
			return c > 0
		case "<":
			return c < 0
		case ">=":
			return c >= 0
		default:
			return c <= 0
		}
	default:
		return false
	}
}

// Parse builds a condition tree from its configuration form:
//
//	{"left": str, "op": str, "right": any}
//	{"all": [<condition>, ...]}
//	{"any": [<condition>, ...]}
//	{"expression": <expr>}
func Parse(v value.Value) *Condition {
	if !v.IsObject() {
		return nil
	}
	if e := v.Field("expression"); !e.IsNull() {
		return Expr(expr.Parse(e))
	}
	if all := v.Field("all"); all.IsArray() {
		return All(parseList(all)...)
	}
	if anyOf := v.Field("any"); anyOf.IsArray() {
		return Any(parseList(anyOf)...)
	}
	if left := v.Field("left"); left.IsString() {
		return Simple(left.Str(), v.Field("op").Str(), v.Field("right"))
	}
	return nil
}

func parseList(v value.Value) []*Condition {
	items := v.Items()
	out := make([]*Condition, 0, len(items))
	for _, item := range items {
		if c := Parse(item); c != nil {
			out = append(out, c)
		}
	}
	return out
}
