package tsdb

import "errors"

// Errors returned by the VictoriaMetrics client. Check with
// errors.Is(). Batched write failures arrive via the OnError callback
// wrapped in ErrWrite.
var (
	// ErrDisabled: the integration is switched off in config.yaml.
	ErrDisabled = errors.New("tsdb: disabled in configuration")

	// ErrConnect: the server could not be reached at startup.
	ErrConnect = errors.New("tsdb: connect failed")

	// ErrNotConnected: the client has been closed or never connected.
	ErrNotConnected = errors.New("tsdb: not connected")

	// ErrWrite: a batched write POST failed.
	ErrWrite = errors.New("tsdb: write failed")
)
