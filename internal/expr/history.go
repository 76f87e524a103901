package expr

import "github.com/calloway/automata-core/internal/value"

// HistoryProvider supplies recent samples of a context variable for the
// last-n aggregate functions.
//
// Implementations must be thread-safe; the evaluator may be shared across
// the tick loop and scheduler callbacks.
type HistoryProvider interface {
	// LastN returns up to n recent samples of the named variable,
	// ordered oldest first. An unknown variable returns an empty slice.
	LastN(name string, n int) []value.Value
}
