// Package store provides the schemaless record persistence layer the
// engine consumes: typed, timestamped JSON payloads with a predicate
// query language over the envelope fields (id, type, source, timestamp)
// and dotted paths into the payload.
//
// Two backends implement the Storage interface:
//
//   - MemoryStorage: mutex-guarded map, for tests and volatile
//     deployments.
//   - SQLiteStorage: records table on the shared application database,
//     with indexed type and time-range scans.
//
// # Thread Safety
//
// Both backends are safe for concurrent use.
package store
