// Package value provides the dynamically-typed value model and the
// per-tick evaluation context for Automata Core.
//
// Value is a tagged union over the JSON data model (null, bool, int64,
// float64, string, array, object). All comparison semantics used by the
// rule engine live here: numeric comparisons promote to float, strings
// order lexicographically, and cross-type orderings are undefined (which
// the evaluator surfaces as false).
//
// Context is a plain string-to-Value map owned by whoever drives the tick
// loop. JSON conversion happens once at the configuration or transport
// boundary via FromAny/ToAny; evaluation paths operate on Value directly.
//
// # Thread Safety
//
// Value is immutable and freely shareable. Context is single-owner and
// not synchronised.
package value
