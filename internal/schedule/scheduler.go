package schedule

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/calloway/automata-core/internal/metrics"
)

// TaskType selects which registered callback a task invokes.
type TaskType int

const (
	// TaskRuleExecution targets a rule id in the rule engine.
	TaskRuleExecution TaskType = iota
	// TaskBehaviorTree targets a named behavior tree.
	TaskBehaviorTree
	// TaskCustomAction targets a caller-defined action.
	TaskCustomAction
)

// String returns the configuration spelling of the task type.
func (t TaskType) String() string {
	switch t {
	case TaskBehaviorTree:
		return "behavior_tree"
	case TaskCustomAction:
		return "custom_action"
	default:
		return "rule_execution"
	}
}

// TaskStatus is the lifecycle state of a scheduled task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
	TaskDisabled  TaskStatus = "disabled"
)

// TaskCallback executes one task firing. It receives the task id and
// the target id (rule id, tree name or custom key) and reports success.
type TaskCallback func(taskID, targetID string) bool

// TaskConfig describes a scheduled task.
//
// Exactly one schedule source applies: CronExpression when non-empty,
// otherwise Interval. RepeatCount bounds interval tasks (-1 means
// unlimited; cron tasks are always unlimited).
type TaskConfig struct {
	ID             string         `json:"id"`
	Type           TaskType       `json:"type"`
	TargetID       string         `json:"target_id"`
	CronExpression string         `json:"cron_expression,omitempty"`
	Interval       time.Duration  `json:"interval,omitempty"`
	RepeatCount    int            `json:"repeat_count"`
	Enabled        bool           `json:"enabled"`
	FrequencyLimit LimitConfig    `json:"frequency_limit"`
	ResourceLimit  ResourceLimits `json:"resource_limit"`
}

// TaskInfo is the read-only view of a task.
type TaskInfo struct {
	Config       TaskConfig `json:"config"`
	Status       TaskStatus `json:"status"`
	LastExec     time.Time  `json:"last_exec"`
	ExecCount    int        `json:"exec_count"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	LastError    string     `json:"last_error,omitempty"`
}

// taskState is the internal mutable record.
type taskState struct {
	config       TaskConfig
	status       TaskStatus
	lastExec     time.Time
	execCount    int
	successCount int
	failureCount int
	lastError    string
}

// SchedulerStats aggregates task outcomes plus the subsystem rollups.
type SchedulerStats struct {
	TotalTasks           int                 `json:"total_tasks"`
	ActiveTasks          int                 `json:"active_tasks"`
	CompletedTasks       int                 `json:"completed_tasks"`
	FailedTasks          int                 `json:"failed_tasks"`
	CancelledTasks       int                 `json:"cancelled_tasks"`
	DisabledTasks        int                 `json:"disabled_tasks"`
	TotalExecutions      int                 `json:"total_executions"`
	SuccessfulExecutions int                 `json:"successful_executions"`
	FailedExecutions     int                 `json:"failed_executions"`
	SuccessRate          float64             `json:"success_rate"`
	Resources            GlobalResourceStats `json:"resources"`
	Frequency            LimiterStats        `json:"frequency"`
}

// Logger is the logging interface the scheduler needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Scheduler binds the timer manager, frequency limiter and resource
// monitor into a unified task lifecycle.
//
// Each created task installs a limiter entry and a monitor entry, then a
// timer whose callback runs the full gate sequence: enabled check, rate
// limit (denied fires leave the task Pending and are not failures),
// resource limits (violations mark the task Failed with a reason), then
// the registered per-type callback with timing, usage recording and
// repeat-cap completion.
//
// Thread Safety: all public methods are safe for concurrent use.
type Scheduler struct {
	timers  *TimerManager
	limiter *FrequencyLimiter
	monitor *ResourceMonitor

	mu        sync.Mutex
	tasks     map[string]*taskState
	callbacks map[TaskType]TaskCallback
	running   bool

	logger Logger
	now    func() time.Time
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger installs the scheduler logger.
func WithSchedulerLogger(l Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSchedulerClock overrides the wall clock used for task timestamps.
// The embedded timer manager keeps its own clock. Intended for tests.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler creates a stopped scheduler with fresh subsystems.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		timers:    NewTimerManager(),
		limiter:   NewFrequencyLimiter(),
		monitor:   NewResourceMonitor(),
		tasks:     make(map[string]*taskState),
		callbacks: make(map[TaskType]TaskCallback),
		logger:    noopLogger{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the timer worker.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.timers.Start()
}

// Stop halts the timer worker and joins it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()
	s.timers.Stop()
}

// RegisterCallback installs the callback for a task type.
func (s *Scheduler) RegisterCallback(taskType TaskType, cb TaskCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks[taskType] = cb
}

// CreateTask installs a task: limiter entry, monitor entry and the
// underlying timer (cron when a cron expression is present, interval
// otherwise).
func (s *Scheduler) CreateTask(cfg TaskConfig) error {
	if cfg.ID == "" || cfg.TargetID == "" {
		return fmt.Errorf("%w: id and target_id are required", ErrInvalidTask)
	}

	s.mu.Lock()
	if _, exists := s.tasks[cfg.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: task %q", ErrDuplicateID, cfg.ID)
	}
	s.mu.Unlock()

	// A zero-valued frequency limit means unlimited; the limiter treats
	// an absent entry exactly that way.
	if cfg.FrequencyLimit.MaxRequests > 0 && cfg.FrequencyLimit.Window > 0 {
		s.limiter.SetLimit(cfg.ID, cfg.FrequencyLimit)
	}
	s.monitor.StartMonitoring(cfg.ID, cfg.ResourceLimit)

	var err error
	switch {
	case cfg.CronExpression != "":
		err = s.timers.CreateCron(cfg.ID, cfg.CronExpression, s.taskWrapper(cfg.ID))
	case cfg.Interval > 0:
		err = s.timers.CreateRepeat(cfg.ID, cfg.Interval, cfg.RepeatCount, s.taskWrapper(cfg.ID))
	default:
		err = fmt.Errorf("%w: no cron expression or interval", ErrInvalidTask)
	}
	if err != nil {
		s.limiter.RemoveLimit(cfg.ID)
		s.monitor.StopMonitoring(cfg.ID)
		return err
	}

	status := TaskPending
	if !cfg.Enabled {
		status = TaskDisabled
	}

	s.mu.Lock()
	s.tasks[cfg.ID] = &taskState{config: cfg, status: status}
	s.mu.Unlock()

	s.logger.Info("task created",
		"task_id", cfg.ID,
		"type", cfg.Type.String(),
		"target_id", cfg.TargetID,
	)
	return nil
}

// CreateCronTask is CreateTask for a plain cron schedule.
func (s *Scheduler) CreateCronTask(id, targetID, cronExpr string, taskType TaskType) error {
	return s.CreateTask(TaskConfig{
		ID:             id,
		Type:           taskType,
		TargetID:       targetID,
		CronExpression: cronExpr,
		RepeatCount:    -1,
		Enabled:        true,
	})
}

// CreateRepeatTask is CreateTask for a plain interval schedule.
func (s *Scheduler) CreateRepeatTask(id, targetID string, interval time.Duration, repeatCount int, taskType TaskType) error {
	return s.CreateTask(TaskConfig{
		ID:          id,
		Type:        taskType,
		TargetID:    targetID,
		Interval:    interval,
		RepeatCount: repeatCount,
		Enabled:     true,
	})
}

// CancelTask cancels the underlying timer and marks the task cancelled.
// The task record is removed. It returns false for an unknown task id.
func (s *Scheduler) CancelTask(id string) bool {
	s.timers.Cancel(id)

	s.mu.Lock()
	task, ok := s.tasks[id]
	if ok {
		task.status = TaskCancelled
		delete(s.tasks, id)
	}
	s.mu.Unlock()

	if ok {
		s.limiter.RemoveLimit(id)
		s.monitor.StopMonitoring(id)
	}
	return ok
}

// SetTaskEnabled toggles a task; disabled tasks skip their timer fires.
func (s *Scheduler) SetTaskEnabled(id string, enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return false
	}
	task.config.Enabled = enabled
	if enabled {
		task.status = TaskPending
	} else {
		task.status = TaskDisabled
	}
	return true
}

// Task returns the read-only view of a task.
func (s *Scheduler) Task(id string) (TaskInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return TaskInfo{}, false
	}
	return task.info(), true
}

// Tasks returns views of every task, sorted by id.
func (s *Scheduler) Tasks() []TaskInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskInfo, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, task.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Config.ID < out[j].Config.ID })
	return out
}

// Stats aggregates task outcomes and subsystem rollups.
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	var stats SchedulerStats
	stats.TotalTasks = len(s.tasks)
	for _, task := range s.tasks {
		switch task.status {
		case TaskPending, TaskRunning:
			stats.ActiveTasks++
		case TaskCompleted:
			stats.CompletedTasks++
		case TaskFailed:
			stats.FailedTasks++
		case TaskCancelled:
			stats.CancelledTasks++
		case TaskDisabled:
			stats.DisabledTasks++
		}
		stats.TotalExecutions += task.execCount
		stats.SuccessfulExecutions += task.successCount
		stats.FailedExecutions += task.failureCount
	}
	s.mu.Unlock()

	if stats.TotalExecutions > 0 {
		stats.SuccessRate = float64(stats.SuccessfulExecutions) / float64(stats.TotalExecutions)
	}
	stats.Resources = s.monitor.GlobalStats()
	stats.Frequency = s.limiter.Stats()
	return stats
}

// Cleanup drops stale monitor identifiers and expired limiter
// timestamps.
func (s *Scheduler) Cleanup(maxAgeHours int) {
	s.monitor.CleanupExpired(maxAgeHours)
	s.limiter.Cleanup("")
}

// Limiter exposes the embedded frequency limiter (for API introspection).
func (s *Scheduler) Limiter() *FrequencyLimiter { return s.limiter }

// Monitor exposes the embedded resource monitor.
func (s *Scheduler) Monitor() *ResourceMonitor { return s.monitor }

// Timers exposes the embedded timer manager.
func (s *Scheduler) Timers() *TimerManager { return s.timers }

// taskWrapper adapts a task id into a timer callback running the full
// gate sequence.
func (s *Scheduler) taskWrapper(id string) TimerCallback {
	return func() { s.executeTask(id) }
}

// executeTask runs one task firing.
func (s *Scheduler) executeTask(id string) {
	s.mu.Lock()
	task, ok := s.tasks[id]
	if !ok || !task.config.Enabled {
		s.mu.Unlock()
		return
	}
	taskType := task.config.Type
	targetID := task.config.TargetID
	repeatCap := task.config.RepeatCount
	s.mu.Unlock()

	// Gate 1: frequency limit. A denied fire is not a failure; the task
	// simply stays pending until its next due time.
	if !s.limiter.TryAcquire(id) {
		metrics.TaskExecutions.WithLabelValues("rate_limited").Inc()
		return
	}

	// Gate 2: resource limits.
	if !s.monitor.CheckLimits(id) {
		s.recordExecution(id, false, 0, "resource limit exceeded", repeatCap)
		s.setStatus(id, TaskFailed)
		metrics.TaskExecutions.WithLabelValues("resource_limited").Inc()
		return
	}

	s.setStatus(id, TaskRunning)
	s.mu.Lock()
	task.lastExec = s.now()
	s.mu.Unlock()

	s.mu.Lock()
	cb, hasCB := s.callbacks[taskType]
	s.mu.Unlock()

	started := time.Now()
	success := false
	errText := ""
	if hasCB {
		success, errText = s.invoke(cb, id, targetID)
	} else {
		errText = "no callback registered for task type"
	}
	execMillis := uint64(time.Since(started).Milliseconds())

	s.recordExecution(id, success, execMillis, errText, repeatCap)

	if success {
		metrics.TaskExecutions.WithLabelValues("success").Inc()
	} else {
		metrics.TaskExecutions.WithLabelValues("failure").Inc()
		s.logger.Warn("task execution failed", "task_id", id, "error", errText)
	}
}

// invoke runs the callback with panic recovery.
func (s *Scheduler) invoke(cb TaskCallback, taskID, targetID string) (success bool, errText string) {
	defer func() {
		if r := recover(); r != nil {
			success = false
			errText = fmt.Sprintf("panic: %v", r)
		}
	}()
	return cb(taskID, targetID), ""
}

func (s *Scheduler) setStatus(id string, status TaskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task, ok := s.tasks[id]; ok {
		task.status = status
	}
}

// recordExecution updates counters, monitor usage and the post-run
// status: Pending again while the repeat cap allows, Completed when a
// finite cap is exhausted, Failed on an unsuccessful run.
func (s *Scheduler) recordExecution(id string, success bool, execMillis uint64, errText string, repeatCap int) {
	s.monitor.RecordUsage(id, 0, execMillis, success)

	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return
	}

	task.execCount++
	if success {
		task.successCount++
		if repeatCap >= 0 && task.execCount >= repeatCap {
			task.status = TaskCompleted
		} else {
			task.status = TaskPending
		}
	} else {
		task.failureCount++
		task.lastError = errText
		task.status = TaskFailed
	}
}

func (t *taskState) info() TaskInfo {
	return TaskInfo{
		Config:       t.config,
		Status:       t.status,
		LastExec:     t.lastExec,
		ExecCount:    t.execCount,
		SuccessCount: t.successCount,
		FailureCount: t.failureCount,
		LastError:    t.lastError,
	}
}
