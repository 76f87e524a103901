package tsdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// maxQueryResponse caps query response bodies at 10 MB.
const maxQueryResponse = 10 << 20

// Metric names produced by the write helpers once VictoriaMetrics maps
// line protocol to Prometheus series ({measurement}_{field}).
const (
	metricSensorSample = "sensor_samples_value"
	metricRuleFire     = "rule_fires_duration_ms"
	metricTaskOutcome  = "task_outcomes_duration_ms"
)

// QuerySensorRange reads back the recorded samples of one sensor over
// [start, end] at the given resolution.
//
// Returns the raw Prometheus range-query JSON; callers that need the
// decoded series should unmarshal data.result themselves.
func (c *Client) QuerySensorRange(ctx context.Context, sensor string, start, end time.Time, step time.Duration) (json.RawMessage, error) {
	selector := fmt.Sprintf("%s{sensor=%q}", metricSensorSample, escapeLabel(sensor))
	return c.QueryRange(ctx, selector, start, end, step)
}

// QueryRuleFireCount counts how often a rule fired within the trailing
// window, evaluated now.
func (c *Client) QueryRuleFireCount(ctx context.Context, ruleID string, window time.Duration) (json.RawMessage, error) {
	q := fmt.Sprintf("count_over_time(%s{rule_id=%q}[%s])",
		metricRuleFire, escapeLabel(ruleID), promDuration(window))
	return c.QueryInstant(ctx, q)
}

// QueryTaskDurations reads back a task's execution durations over
// [start, end].
func (c *Client) QueryTaskDurations(ctx context.Context, taskID string, start, end time.Time, step time.Duration) (json.RawMessage, error) {
	selector := fmt.Sprintf("%s{task_id=%q}", metricTaskOutcome, escapeLabel(taskID))
	return c.QueryRange(ctx, selector, start, end, step)
}

// QueryRange executes an arbitrary PromQL range query.
func (c *Client) QueryRange(ctx context.Context, promql string, start, end time.Time, step time.Duration) (json.RawMessage, error) {
	if err := checkQuery(c, promql); err != nil {
		return nil, err
	}
	if step <= 0 {
		return nil, fmt.Errorf("tsdb query: step must be positive")
	}
	if end.Before(start) {
		return nil, fmt.Errorf("tsdb query: end before start")
	}

	params := url.Values{
		"query": {promql},
		"start": {unixSeconds(start)},
		"end":   {unixSeconds(end)},
		"step":  {promDuration(step)},
	}
	return c.runQuery(ctx, "/api/v1/query_range", params)
}

// QueryInstant executes an arbitrary PromQL instant query.
func (c *Client) QueryInstant(ctx context.Context, promql string) (json.RawMessage, error) {
	if err := checkQuery(c, promql); err != nil {
		return nil, err
	}
	return c.runQuery(ctx, "/api/v1/query", url.Values{"query": {promql}})
}

func checkQuery(c *Client, promql string) error {
	if c == nil || !c.IsConnected() {
		return ErrNotConnected
	}
	if strings.TrimSpace(promql) == "" {
		return fmt.Errorf("tsdb query: empty query")
	}
	return nil
}

// runQuery performs the GET against a Prometheus API path and returns
// the raw body.
func (c *Client) runQuery(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("tsdb query: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tsdb query: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxQueryResponse))
	if err != nil {
		return nil, fmt.Errorf("tsdb query: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tsdb query: HTTP %d", resp.StatusCode)
	}
	return json.RawMessage(body), nil
}

// unixSeconds renders a timestamp the way the Prometheus API expects.
func unixSeconds(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

// promDuration renders a duration as a PromQL duration literal,
// rounding up to a whole second.
func promDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	if d%time.Second != 0 || secs == 0 {
		secs++
	}
	return strconv.FormatInt(secs, 10) + "s"
}

// escapeLabel escapes a label value for use inside a PromQL selector.
func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
