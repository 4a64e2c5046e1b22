package refresh

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// queueDepth is only updated in the worker goroutine, guaranteeing a single
// writer and eliminating race/skew concerns.
var (
	submissionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "socialsense",
			Subsystem: "refresh",
			Name:      "submissions_total",
			Help:      "Refresh jobs accepted for execution.",
		},
	)

	queueFullTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "socialsense",
			Subsystem: "refresh",
			Name:      "queue_full_total",
			Help:      "Enqueue attempts that timed out (queue full).",
		},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "socialsense",
			Subsystem: "refresh",
			Name:      "run_duration_seconds",
			Help:      "Refresh job execution latency.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "socialsense",
			Subsystem: "refresh",
			Name:      "queue_depth",
			Help:      "Current depth of the refresh queue.",
		},
	)
)
