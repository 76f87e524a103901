// Package schedule provides the timing machinery for Automata Core:
// cron expression parsing, a single-worker timer manager, per-identifier
// frequency limiting, per-identifier resource accounting and a scheduler
// façade binding them into one task lifecycle.
//
// Architecture:
//
//	┌────────────────────────────────────────────────┐
//	│              Scheduler (scheduler.go)           │
//	│  task registry + per-type callbacks             │
//	│  ┌──────────┐ ┌───────────────┐ ┌────────────┐ │
//	│  │  Timer   │ │  Frequency    │ │  Resource  │ │
//	│  │ Manager  │ │  Limiter      │ │  Monitor   │ │
//	│  │(timer.go)│ │ (limiter.go)  │ │(monitor.go)│ │
//	│  └──────────┘ └───────────────┘ └────────────┘ │
//	│       │                                         │
//	│       ▼                                         │
//	│  Cron parser (cron.go)                          │
//	└────────────────────────────────────────────────┘
//
// Timer callbacks are serialised by a single worker goroutine that
// wakes every 100 ms (or on a create signal), fires due timers in
// (next_due, id) order outside the lock, and sweeps completed and
// cancelled entries.
//
// A scheduler task fire passes three gates: enabled flag, frequency
// limit (a denied fire leaves the task pending and is not a failure)
// and resource limits (a violation marks the task failed with a
// reason). The registered per-type callback is then timed and its usage
// recorded.
//
// # Thread Safety
//
// Every public type in this package is safe for concurrent use; each
// holds its own internal mutex.
package schedule
