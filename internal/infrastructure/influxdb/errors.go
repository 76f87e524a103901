package influxdb

import "errors"

// Errors returned by the InfluxDB client. Check with errors.Is().
// Write failures are asynchronous and arrive via the OnError callback
// instead.
var (
	// ErrDisabled: the integration is switched off in config.yaml.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnect: the server could not be reached or is unhealthy.
	ErrConnect = errors.New("influxdb: connect failed")

	// ErrNotConnected: the client has been closed or never connected.
	ErrNotConnected = errors.New("influxdb: not connected")
)
