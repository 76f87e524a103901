package schedule

import (
	"sync"
	"time"

	"github.com/calloway/automata-core/internal/metrics"
)

// Strategy selects the rate-limiting algorithm for an identifier.
type Strategy int

const (
	// FixedWindow counts requests in the window ending now and resets a
	// full window ahead.
	FixedWindow Strategy = iota
	// SlidingWindow counts requests in a window whose end is always
	// now; capacity frees as the earliest request ages out.
	SlidingWindow
	// TokenBucket refills tokens continuously at max/window and allows
	// a request while a token is available.
	TokenBucket
)

// String returns the configuration spelling of the strategy.
func (s Strategy) String() string {
	switch s {
	case SlidingWindow:
		return "sliding_window"
	case TokenBucket:
		return "token_bucket"
	default:
		return "fixed_window"
	}
}

// LimitConfig is the per-identifier rate limit.
type LimitConfig struct {
	MaxRequests int           `json:"max_requests"`
	Window      time.Duration `json:"window"`
	Strategy    Strategy      `json:"strategy"`
}

// LimitResult is the outcome of a limiter check.
//
// Remaining is -1 for identifiers with no configured limit.
type LimitResult struct {
	Allowed    bool          `json:"allowed"`
	Remaining  int           `json:"remaining"`
	ResetAfter time.Duration `json:"reset_after"`
}

// LimiterStats aggregates limiter outcomes across all identifiers.
type LimiterStats struct {
	TotalRequests   uint64  `json:"total_requests"`
	BlockedRequests uint64  `json:"blocked_requests"`
	BlockRate       float64 `json:"block_rate"`
}

// limiterEntry is the per-identifier state.
type limiterEntry struct {
	config      LimitConfig
	requests    []time.Time
	lastCleanup time.Time
}

// FrequencyLimiter rate-limits named identifiers with a per-identifier
// strategy.
//
// Identifiers without a configured limit are always allowed and report
// Remaining -1.
//
// Thread Safety: all methods are safe for concurrent use.
type FrequencyLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	stats   LimiterStats
	now     func() time.Time
}

// LimiterOption configures a FrequencyLimiter.
type LimiterOption func(*FrequencyLimiter)

// WithLimiterClock overrides the wall clock. Intended for tests.
func WithLimiterClock(now func() time.Time) LimiterOption {
	return func(l *FrequencyLimiter) { l.now = now }
}

// NewFrequencyLimiter creates an empty limiter.
func NewFrequencyLimiter(opts ...LimiterOption) *FrequencyLimiter {
	l := &FrequencyLimiter{
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetLimit installs (or replaces) the limit for an identifier. Existing
// request history is kept.
func (l *FrequencyLimiter) SetLimit(id string, cfg LimitConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[id]
	if !ok {
		entry = &limiterEntry{lastCleanup: l.now()}
		l.entries[id] = entry
	}
	entry.config = cfg
}

// RemoveLimit forgets an identifier entirely.
func (l *FrequencyLimiter) RemoveLimit(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, id)
}

// Check evaluates the identifier's limit, records the request when
// allowed, and returns the detailed result.
func (l *FrequencyLimiter) Check(id string) LimitResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[id]
	if !ok || entry.config.MaxRequests <= 0 || entry.config.Window <= 0 {
		// No (or no effective) configured limit: always allowed.
		l.recordLocked(true)
		return LimitResult{Allowed: true, Remaining: -1}
	}

	now := l.now()
	l.pruneLocked(entry, now)

	var result LimitResult
	switch entry.config.Strategy {
	case SlidingWindow:
		result = l.checkSliding(entry, now)
	case TokenBucket:
		result = l.checkTokenBucket(entry, now)
	default:
		result = l.checkFixed(entry, now)
	}

	if result.Allowed {
		entry.requests = append(entry.requests, now)
	}
	l.recordLocked(result.Allowed)
	return result
}

// TryAcquire is Check reduced to its allow decision.
func (l *FrequencyLimiter) TryAcquire(id string) bool {
	return l.Check(id).Allowed
}

// Reset clears the request history of one identifier, or of every
// identifier when id is empty. Configured limits are kept.
func (l *FrequencyLimiter) Reset(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id == "" {
		for _, entry := range l.entries {
			entry.requests = nil
		}
		return
	}
	if entry, ok := l.entries[id]; ok {
		entry.requests = nil
	}
}

// Cleanup drops expired request timestamps for one identifier, or for
// all when id is empty.
func (l *FrequencyLimiter) Cleanup(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if id == "" {
		for _, entry := range l.entries {
			l.pruneLocked(entry, now)
		}
		return
	}
	if entry, ok := l.entries[id]; ok {
		l.pruneLocked(entry, now)
	}
}

// Stats returns the global limiter statistics.
func (l *FrequencyLimiter) Stats() LimiterStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func (l *FrequencyLimiter) recordLocked(allowed bool) {
	l.stats.TotalRequests++
	if !allowed {
		l.stats.BlockedRequests++
		metrics.LimiterBlocks.Inc()
	}
	l.stats.BlockRate = float64(l.stats.BlockedRequests) / float64(l.stats.TotalRequests)
}

// pruneLocked drops timestamps older than the window.
func (l *FrequencyLimiter) pruneLocked(entry *limiterEntry, now time.Time) {
	if entry.config.Window <= 0 {
		return
	}
	cutoff := now.Add(-entry.config.Window)
	kept := entry.requests[:0]
	for _, ts := range entry.requests {
		if !ts.Before(cutoff) {
			kept = append(kept, ts)
		}
	}
	entry.requests = kept
}

func (l *FrequencyLimiter) checkFixed(entry *limiterEntry, now time.Time) LimitResult {
	count := len(entry.requests)
	allowed := count < entry.config.MaxRequests
	remaining := entry.config.MaxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	return LimitResult{
		Allowed:    allowed,
		Remaining:  remaining,
		ResetAfter: entry.config.Window,
	}
}

func (l *FrequencyLimiter) checkSliding(entry *limiterEntry, now time.Time) LimitResult {
	count := len(entry.requests)
	allowed := count < entry.config.MaxRequests
	remaining := entry.config.MaxRequests - count
	if remaining < 0 {
		remaining = 0
	}

	var resetAfter time.Duration
	if count > 0 {
		// Capacity frees when the earliest stored request leaves the
		// window.
		resetAfter = entry.requests[0].Add(entry.config.Window).Sub(now)
		if resetAfter < 0 {
			resetAfter = 0
		}
	}
	return LimitResult{
		Allowed:    allowed,
		Remaining:  remaining,
		ResetAfter: resetAfter,
	}
}

func (l *FrequencyLimiter) checkTokenBucket(entry *limiterEntry, now time.Time) LimitResult {
	cfg := entry.config
	if cfg.Window <= 0 || cfg.MaxRequests <= 0 {
		return LimitResult{Allowed: true, Remaining: -1}
	}

	elapsed := now.Sub(entry.lastCleanup)
	entry.lastCleanup = now

	refilled := int(elapsed.Milliseconds() * int64(cfg.MaxRequests) / cfg.Window.Milliseconds())
	tokens := refilled
	if tokens > cfg.MaxRequests {
		tokens = cfg.MaxRequests
	}

	perToken := time.Duration(cfg.Window.Nanoseconds() / int64(cfg.MaxRequests))
	return LimitResult{
		Allowed:    tokens > 0,
		Remaining:  tokens,
		ResetAfter: perToken,
	}
}
