package schedule

import (
	"sync"
	"sync/atomic"
	"time"
)

// ResourceLimits configures per-identifier ceilings. A zero field means
// that dimension is unlimited.
type ResourceLimits struct {
	MaxMemoryBytes uint64  `json:"max_memory_bytes"`
	MaxCPUMillis   uint64  `json:"max_cpu_ms"`
	MaxExecutions  uint64  `json:"max_executions"`
	MaxExecMillis  uint64  `json:"max_exec_ms"` // average per execution
	MaxErrorRate   float64 `json:"max_error_rate"`
}

// resourceUsage is the per-identifier counter set. Counters are atomic
// so RecordUsage never contends with snapshot reads.
type resourceUsage struct {
	memoryBytes atomic.Int64
	cpuMillis   atomic.Uint64
	executions  atomic.Uint64
	errors      atomic.Uint64
	execMillis  atomic.Uint64
}

// UsageSnapshot is a point-in-time copy of the counters.
type UsageSnapshot struct {
	MemoryBytes     int64  `json:"memory_bytes"`
	CPUMillis       uint64 `json:"cpu_ms"`
	Executions      uint64 `json:"executions"`
	Errors          uint64 `json:"errors"`
	TotalExecMillis uint64 `json:"total_exec_ms"`
}

func (u *resourceUsage) snapshot() UsageSnapshot {
	return UsageSnapshot{
		MemoryBytes:     u.memoryBytes.Load(),
		CPUMillis:       u.cpuMillis.Load(),
		Executions:      u.executions.Load(),
		Errors:          u.errors.Load(),
		TotalExecMillis: u.execMillis.Load(),
	}
}

// ResourceStatus is the evaluated state of an identifier.
type ResourceStatus struct {
	Usage           UsageSnapshot  `json:"usage"`
	Limits          ResourceLimits `json:"limits"`
	MemoryPercent   float64        `json:"memory_percent"`
	CPUPercent      float64        `json:"cpu_percent"`
	ErrorRate       float64        `json:"error_rate"`
	AvgExecMillis   float64        `json:"avg_exec_ms"`
	WithinLimits    bool           `json:"within_limits"`
	ViolationReason string         `json:"violation_reason,omitempty"`
}

// GlobalResourceStats rolls up counters across all identifiers.
type GlobalResourceStats struct {
	MonitoredCount   int     `json:"monitored_count"`
	TotalMemoryBytes int64   `json:"total_memory_bytes"`
	TotalCPUMillis   uint64  `json:"total_cpu_ms"`
	TotalExecutions  uint64  `json:"total_executions"`
	TotalErrors      uint64  `json:"total_errors"`
	AverageErrorRate float64 `json:"average_error_rate"`
}

type monitorEntry struct {
	usage      resourceUsage
	limits     ResourceLimits
	lastUpdate time.Time
}

// ResourceMonitor tracks per-identifier resource usage against
// configured limits.
//
// Thread Safety: all methods are safe for concurrent use; the counters
// themselves are atomic.
type ResourceMonitor struct {
	mu      sync.Mutex
	entries map[string]*monitorEntry
	now     func() time.Time
}

// MonitorOption configures a ResourceMonitor.
type MonitorOption func(*ResourceMonitor)

// WithMonitorClock overrides the wall clock. Intended for tests.
func WithMonitorClock(now func() time.Time) MonitorOption {
	return func(m *ResourceMonitor) { m.now = now }
}

// NewResourceMonitor creates an empty monitor.
func NewResourceMonitor(opts ...MonitorOption) *ResourceMonitor {
	m := &ResourceMonitor{
		entries: make(map[string]*monitorEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartMonitoring registers an identifier with its limits, resetting any
// previous counters.
func (m *ResourceMonitor) StartMonitoring(id string, limits ResourceLimits) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = &monitorEntry{limits: limits, lastUpdate: m.now()}
}

// StopMonitoring forgets an identifier.
func (m *ResourceMonitor) StopMonitoring(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
}

// RecordUsage adds one execution's resource consumption. Unknown
// identifiers are ignored.
func (m *ResourceMonitor) RecordUsage(id string, memDelta int64, execMillis uint64, success bool) {
	m.mu.Lock()
	entry, ok := m.entries[id]
	if ok {
		entry.lastUpdate = m.now()
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	if memDelta != 0 {
		entry.usage.memoryBytes.Add(memDelta)
	}
	entry.usage.cpuMillis.Add(execMillis)
	entry.usage.executions.Add(1)
	if !success {
		entry.usage.errors.Add(1)
	}
	entry.usage.execMillis.Add(execMillis)
}

// CheckLimits reports whether the identifier is within every configured
// limit. Unknown identifiers report false.
func (m *ResourceMonitor) CheckLimits(id string) bool {
	m.mu.Lock()
	entry, ok := m.entries[id]
	m.mu.Unlock()
	if !ok {
		return false
	}
	return violation(entry.usage.snapshot(), entry.limits) == ""
}

// SetLimits replaces the limits of a monitored identifier.
func (m *ResourceMonitor) SetLimits(id string, limits ResourceLimits) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return false
	}
	entry.limits = limits
	return true
}

// Reset clears the counters of one identifier, or of every identifier
// when id is empty. Identifiers and their limits are kept.
func (m *ResourceMonitor) Reset(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		for key, entry := range m.entries {
			m.entries[key] = &monitorEntry{limits: entry.limits, lastUpdate: m.now()}
		}
		return
	}
	if entry, ok := m.entries[id]; ok {
		m.entries[id] = &monitorEntry{limits: entry.limits, lastUpdate: m.now()}
	}
}

// Status evaluates the identifier: usage snapshot, percentages, averages
// and the violation reason (empty when within limits).
func (m *ResourceMonitor) Status(id string) (ResourceStatus, bool) {
	m.mu.Lock()
	entry, ok := m.entries[id]
	m.mu.Unlock()
	if !ok {
		return ResourceStatus{}, false
	}

	usage := entry.usage.snapshot()
	limits := entry.limits
	status := ResourceStatus{Usage: usage, Limits: limits}

	if limits.MaxMemoryBytes > 0 {
		status.MemoryPercent = usagePercent(float64(usage.MemoryBytes), float64(limits.MaxMemoryBytes))
	}
	if limits.MaxCPUMillis > 0 {
		status.CPUPercent = usagePercent(float64(usage.CPUMillis), float64(limits.MaxCPUMillis))
	}
	if usage.Executions > 0 {
		status.ErrorRate = float64(usage.Errors) / float64(usage.Executions)
		status.AvgExecMillis = float64(usage.TotalExecMillis) / float64(usage.Executions)
	}

	status.ViolationReason = violation(usage, limits)
	status.WithinLimits = status.ViolationReason == ""
	return status, true
}

// Identifiers returns the monitored identifier names.
func (m *ResourceMonitor) Identifiers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for id := range m.entries {
		out = append(out, id)
	}
	return out
}

// GlobalStats rolls counters up across all identifiers.
func (m *ResourceMonitor) GlobalStats() GlobalResourceStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stats GlobalResourceStats
	stats.MonitoredCount = len(m.entries)
	for _, entry := range m.entries {
		usage := entry.usage.snapshot()
		stats.TotalMemoryBytes += usage.MemoryBytes
		stats.TotalCPUMillis += usage.CPUMillis
		stats.TotalExecutions += usage.Executions
		stats.TotalErrors += usage.Errors
	}
	if stats.TotalExecutions > 0 {
		stats.AverageErrorRate = float64(stats.TotalErrors) / float64(stats.TotalExecutions)
	}
	return stats
}

// CleanupExpired drops identifiers not updated within maxAge hours.
func (m *ResourceMonitor) CleanupExpired(maxAgeHours int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-time.Duration(maxAgeHours) * time.Hour)
	removed := 0
	for id, entry := range m.entries {
		if entry.lastUpdate.Before(cutoff) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

func usagePercent(current, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	pct := current / limit * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// violation returns the first exceeded-limit description, or "" when
// the usage is within every configured limit.
func violation(usage UsageSnapshot, limits ResourceLimits) string {
	if limits.MaxMemoryBytes > 0 && usage.MemoryBytes > int64(limits.MaxMemoryBytes) {
		return "memory usage exceeds limit"
	}
	if limits.MaxCPUMillis > 0 && usage.CPUMillis > limits.MaxCPUMillis {
		return "cpu time exceeds limit"
	}
	if limits.MaxExecutions > 0 && usage.Executions > limits.MaxExecutions {
		return "execution count exceeds limit"
	}
	if limits.MaxErrorRate > 0 && usage.Executions > 0 {
		if float64(usage.Errors)/float64(usage.Executions) > limits.MaxErrorRate {
			return "error rate exceeds limit"
		}
	}
	if limits.MaxExecMillis > 0 && usage.Executions > 0 {
		if usage.TotalExecMillis/usage.Executions > limits.MaxExecMillis {
			return "average execution time exceeds limit"
		}
	}
	return ""
}
