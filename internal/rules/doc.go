// Package rules implements the declarative rule engine for Automata Core.
//
// A rule couples a condition with an ordered action list plus firing
// policy: once/repeat mode, a throttle, a priority in [0, 1000] (smaller
// fires earlier) and an optional group tag for bulk enable/disable.
//
// The host registers action callbacks, loads a JSON rules document and
// calls Tick with a context of sensor readings. Each tick evaluates
// rules in priority order (ties broken by id) and dispatches matching
// action lists in declared order. Callbacks are isolated: a panic or an
// unknown action name is logged and skipped without affecting sibling
// actions or later rules.
//
// # Thread Safety
//
// All Engine methods are safe for concurrent use; the engine mutex is
// held for the duration of Tick so off-thread mutations serialise
// against the evaluation pass.
//
// # Usage
//
//	engine := rules.NewEngine(rules.WithLogger(log))
//	engine.RegisterAction("fan_on", func(params value.Value, ctx *value.Context) {
//	    // side effect
//	})
//	if err := engine.Load(configJSON); err != nil {
//	    return err
//	}
//	engine.Tick(ctx)
package rules
