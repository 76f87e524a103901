// Package expr implements the expression evaluator for rule conditions.
//
// Expressions are trees of literal, variable, binary-operator and
// function-call nodes, built from configuration JSON at load time and
// evaluated against a per-tick context. Evaluation is pure and total:
// type mismatches, division by zero, unknown operators or functions and
// wrong arity all resolve to null rather than an error, and panics are
// recovered at the Evaluate boundary.
//
// Historical aggregates (avg_last_n, max_last_n, trend) are backed by a
// HistoryProvider; without one they fall back to the variable's current
// value.
package expr
