// Package metrics holds the Prometheus collectors shared by the server and the client engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MutationsTotal counts optimistic mutations by operation and persistence result.
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "todo_mutations_total",
		Help: "Optimistic task mutations by operation and result",
	}, []string{"op", "result"})

	// RollbacksTotal counts local changes reverted after a failed persistence call.
	RollbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "todo_rollbacks_total",
		Help: "Optimistic mutations rolled back after persistence failure",
	}, []string{"op"})

	RealtimeEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_total",
		Help: "Change events published by table and type",
	}, []string{"table", "type"})

	RealtimeDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "realtime_dropped_total",
		Help: "Subscribers closed because their event buffer overflowed",
	})

	RealtimeSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_subscribers",
		Help: "Currently registered change-event subscribers",
	})

	TasksByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "todo_tasks",
		Help: "Stored tasks by status, refreshed periodically",
	}, []string{"status"})

	TasksOverdue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "todo_tasks_overdue",
		Help: "Open tasks past their due date",
	})

	// JobRunsTotal counts housekeeping runs by job and outcome (ok, error, timeout, skipped).
	JobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "housekeeping_job_runs_total",
		Help: "Scheduled housekeeping runs by job and outcome",
	}, []string{"job", "result"})

	AIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ai_requests_total",
		Help: "AI helper requests by endpoint and result",
	}, []string{"endpoint", "result"})

	AIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ai_request_duration_seconds",
		Help:    "Latency of upstream language-model calls",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
	}, []string{"endpoint"})
)
