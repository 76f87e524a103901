package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSensorSample writes a single sensor reading.
//
// This is the primary mirror for context variables flowing through the
// engine. The write is non-blocking; data is batched and sent
// asynchronously.
//
// Parameters:
//   - name: Context variable / sensor identifier (e.g., "greenhouse/temp")
//   - value: The numeric reading
//
// Example:
//
//	client.WriteSensorSample("greenhouse/temp", 21.5)
func (c *Client) WriteSensorSample(name string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sensor_samples",
		map[string]string{
			"sensor": name,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteRuleFire records a rule fire with its evaluation-to-dispatch
// duration.
//
// Parameters:
//   - ruleID: The rule that fired
//   - durationMillis: Action-dispatch duration in milliseconds
func (c *Client) WriteRuleFire(ruleID string, durationMillis float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"rule_fires",
		map[string]string{
			"rule_id": ruleID,
		},
		map[string]interface{}{
			"duration_ms": durationMillis,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteTaskOutcome records a scheduler task execution.
//
// Parameters:
//   - taskID: The scheduled task
//   - success: Whether the callback reported success
//   - durationMillis: Callback duration in milliseconds
func (c *Client) WriteTaskOutcome(taskID string, success bool, durationMillis float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"task_outcomes",
		map[string]string{
			"task_id": taskID,
		},
		map[string]interface{}{
			"success":     success,
			"duration_ms": durationMillis,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "core-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., replayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
