package tsdb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/calloway/automata-core/internal/infrastructure/config"
)

// Timeouts for TSDB operations.
const (
	connectTimeout = 10 * time.Second
	writeTimeout   = 5 * time.Second
)

// Batching defaults applied when config leaves them unset.
const (
	defaultBatchSize        = 1000
	defaultFlushIntervalSec = 1
)

// Client writes engine telemetry to VictoriaMetrics using InfluxDB line
// protocol and queries it back with PromQL.
//
// Writes flow through a channel into a single writer goroutine, which
// posts a batch when it reaches the configured size, when the flush
// interval elapses, or on an explicit Flush. When the inbound channel
// is full the line is dropped and reported through the OnError
// callback; telemetry never blocks the tick path.
//
// Thread Safety: all methods are safe for concurrent use.
type Client struct {
	base string
	http *http.Client

	lines     chan string
	flushReq  chan chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	batchSize int
	interval  time.Duration

	mu        sync.RWMutex
	connected bool
	onError   func(err error)
}

// Connect verifies the server and starts the writer goroutine.
func Connect(ctx context.Context, cfg config.TSDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	interval := time.Duration(cfg.FlushInterval) * time.Second
	if interval <= 0 {
		interval = defaultFlushIntervalSec * time.Second
	}

	c := &Client{
		base:      strings.TrimRight(cfg.URL, "/"),
		http:      &http.Client{Timeout: writeTimeout},
		lines:     make(chan string, 4*batch),
		flushReq:  make(chan chan struct{}),
		done:      make(chan struct{}),
		batchSize: batch,
		interval:  interval,
		connected: true,
	}

	healthCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := c.HealthCheck(healthCtx); err != nil {
		c.setConnected(false)
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	c.wg.Add(1)
	go c.writerLoop()

	return c, nil
}

// writerLoop is the single batch writer. It owns the pending slice;
// nothing else touches it.
func (c *Client) writerLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	pending := make([]string, 0, c.batchSize)
	post := func() {
		if len(pending) == 0 {
			return
		}
		c.post(pending)
		pending = pending[:0]
	}

	for {
		select {
		case line := <-c.lines:
			pending = append(pending, line)
			if len(pending) >= c.batchSize {
				post()
			}
		case <-ticker.C:
			post()
		case ack := <-c.flushReq:
			// Drain anything already queued before acknowledging.
			for drained := false; !drained; {
				select {
				case line := <-c.lines:
					pending = append(pending, line)
				default:
					drained = true
				}
			}
			post()
			close(ack)
		case <-c.done:
			for drained := false; !drained; {
				select {
				case line := <-c.lines:
					pending = append(pending, line)
				default:
					drained = true
				}
			}
			post()
			return
		}
	}
}

// addLine queues one line-protocol entry. Called by the write helpers.
func (c *Client) addLine(line string) {
	if !c.IsConnected() {
		return
	}
	select {
	case c.lines <- line:
	case <-c.done:
	default:
		c.reportError(fmt.Errorf("%w: write buffer full, line dropped", ErrWrite))
	}
}

// post sends one batch to the /write endpoint.
func (c *Client) post(lines []string) {
	body := strings.Join(lines, "\n")

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/write", bytes.NewBufferString(body))
	if err != nil {
		c.reportError(fmt.Errorf("%w: %w", ErrWrite, err))
		return
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		c.reportError(fmt.Errorf("%w: %w", ErrWrite, err))
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body) // drain for connection reuse

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		c.reportError(fmt.Errorf("%w: HTTP %d", ErrWrite, resp.StatusCode))
	}
}

// Flush forces the writer to post everything queued so far. It blocks
// until the post completes; after Close it is a no-op.
func (c *Client) Flush() {
	if c == nil {
		return
	}
	ack := make(chan struct{})
	select {
	case c.flushReq <- ack:
		<-ack
	case <-c.done:
	}
}

// Close stops the writer after a final drain-and-post. Idempotent.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		c.setConnected(false)
		close(c.done)
		c.wg.Wait()
	})
	return nil
}

// HealthCheck verifies the server responds on /health.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return fmt.Errorf("tsdb health check: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tsdb health check: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tsdb health check: status %d", resp.StatusCode)
	}
	return nil
}

// IsConnected reports the last known connection state. HealthCheck
// performs an active probe.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) setConnected(connected bool) {
	c.mu.Lock()
	c.connected = connected
	c.mu.Unlock()
}

// SetOnError installs the callback receiving dropped-line and failed
// write errors.
func (c *Client) SetOnError(callback func(err error)) {
	c.mu.Lock()
	c.onError = callback
	c.mu.Unlock()
}

func (c *Client) reportError(err error) {
	c.mu.RLock()
	callback := c.onError
	c.mu.RUnlock()
	if callback != nil {
		callback(err)
	}
}
