package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialsense_client",
			Name:      "cache_refreshes_enqueued_total",
			Help:      "Background cache refreshes accepted by the runner.",
		},
		[]string{"resource"},
	)

	refreshFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialsense_client",
			Name:      "cache_refresh_failures_total",
			Help:      "Background cache refreshes that returned an error.",
		},
		[]string{"resource"},
	)
)
