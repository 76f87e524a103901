// Package tsdb provides time-series database connectivity for Automata Core.
//
// It writes to VictoriaMetrics using InfluxDB line protocol over HTTP and
// queries using PromQL. Zero external dependencies — uses only net/http.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Sensor samples flowing through the tick context
//   - Rule-fire events and their dispatch durations
//   - Scheduler task outcomes
//
// # Usage
//
//	cfg := config.TSDBConfig{
//	    Enabled:       true,
//	    URL:           "http://localhost:8428",
//	    BatchSize:     1000,
//	    FlushInterval: 1,
//	}
//
//	client, err := tsdb.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Mirror a sensor reading
//	client.WriteSensorSample("greenhouse/temp", 21.5)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// Writes flow through a channel into a single writer goroutine and are
// posted on size threshold, timer, or explicit Flush.
//
// # Error Handling
//
// Write operations never block the tick path: when the write buffer is
// full the line is dropped and reported via the OnError callback, as
// are failed POSTs. Connection and health check errors are returned
// directly.
//
// # Performance
//
// Batch size and flush interval come from config.yaml (batch_size,
// flush_interval). A batch flush is a single HTTP POST with
// newline-delimited line protocol.
package tsdb
