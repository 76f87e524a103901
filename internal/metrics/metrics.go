// Package metrics exposes Prometheus instrumentation for the engine,
// behavior trees and scheduler. Collectors are registered with the
// default registry via promauto and served by the API's /metrics
// endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "automata_ticks_total",
		Help: "Total number of engine tick passes.",
	})

	RuleFires = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "automata_rule_fires_total",
		Help: "Total number of rule fires, labelled by rule ID.",
	}, []string{"rule_id"})

	ActionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "automata_action_errors_total",
		Help: "Total number of action callbacks that panicked or were unknown.",
	}, []string{"rule_id", "reason"})

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "automata_tick_duration_ms",
		Help:    "Engine tick latency in milliseconds.",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 250},
	})

	TreeExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "automata_tree_executions_total",
		Help: "Total behavior-tree executions, labelled by tree and resulting status.",
	}, []string{"tree", "status"})

	TaskExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "automata_task_executions_total",
		Help: "Total scheduler task executions, labelled by outcome.",
	}, []string{"outcome"})

	LimiterBlocks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "automata_limiter_blocks_total",
		Help: "Total requests denied by the frequency limiter.",
	})

	SensorUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "automata_sensor_updates_total",
		Help: "Total sensor readings ingested from MQTT.",
	})
)
