// Package behavior implements the behavior-tree runtime: tri-state
// node ticking, JSON tree parsing, per-tree executors with statistics
// and a named-tree manager.
//
// Node kinds:
//
//   - Leaves: Action, Condition — resolve registered callbacks by name
//     at tick time; panics report Failure.
//   - Composites: Sequence, Selector, Parallel (four combine policies).
//   - Decorators: Inverter, Repeater, UntilFail, UntilSuccess.
//
// Repeater advances at most one child-success per tick and reports
// Running until its count is reached, so a long repetition never blocks
// the tick thread. UntilFail and UntilSuccess bound their per-tick loop
// (1024 iterations) for the same reason.
//
// Ownership flows strictly root to leaves; there are no parent
// back-references, and Reset propagates down recursively.
//
// # Thread Safety
//
// Manager, Executor and Registry are safe for concurrent use. A parsed
// tree (Node graph) carries per-node state and belongs to exactly one
// executor.
package behavior
