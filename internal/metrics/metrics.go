package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "link_registry_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "route", "status"},
	)

	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_registry_requests_total",
			Help: "Total number of requests",
		},
		[]string{"method", "route", "status"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_registry_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	// Registry metrics
	EntriesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_registry_entries_created_total",
			Help: "Short URLs created",
		},
		[]string{"code_type"}, // "custom" or "generated"
	)

	Resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_registry_resolutions_total",
			Help: "Short code resolutions by outcome",
		},
		[]string{"state"},
	)

	EntriesPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "link_registry_entries_purged_total",
			Help: "Expired entries removed",
		},
	)
)
