// Package history records sensor samples and rule executions.
//
// The recorder keeps a bounded in-memory ring per variable to serve the
// expression evaluator's historical aggregate functions, persists the
// full stream into the record store for querying, and can mirror
// numeric samples into a time-series database.
package history
