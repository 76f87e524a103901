// Package api provides the HTTP REST API and WebSocket event stream for
// Automata Core.
//
// It exposes engine introspection and control (rules, rule groups,
// behavior trees, scheduled tasks), history queries and Prometheus
// metrics to operator tooling.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
package api
