// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "exam_live_sessions_current",
		Help: "Number of exam sessions with a running event loop",
	})

	SessionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_session_events_total",
			Help: "Engine events forwarded to clients, by type",
		},
		[]string{"type"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_group_submissions_total",
			Help: "Graded group submissions, by outcome",
		},
		[]string{"outcome"},
	)

	GradingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "exam_grading_duration_seconds",
		Help:    "Time spent grading one group submission",
		Buckets: prometheus.DefBuckets,
	})

	QueueFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_worker_flushes_total",
			Help: "Worker persistence attempts, by queue and status",
		},
		[]string{"queue", "status"},
	)
)

// Outcome labels for Submissions.
const (
	OutcomeScored   = "scored"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)
