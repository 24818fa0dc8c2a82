// Package metrics holds the Prometheus collectors shared by the service
// and HTTP layers. Collectors register with the default registry, which is
// exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecomputeRuns counts availability recomputes by outcome
	// (ok, not_found, error).
	RecomputeRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_recompute_runs_total",
			Help: "Availability aggregate recomputes by outcome",
		},
		[]string{"outcome"},
	)

	// RecomputeDispatches counts recompute submissions by transport
	// (queue, inline, fallback).
	RecomputeDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_recompute_dispatches_total",
			Help: "Recompute task submissions by transport",
		},
		[]string{"transport"},
	)

	// SearchCacheLookups counts showtime cache lookups by result
	// (hit, miss, invalid).
	SearchCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showtime_search_cache_lookups_total",
			Help: "Showtime search cache lookups by result",
		},
		[]string{"result"},
	)

	// ProviderRequestDuration tracks external showtime search latency.
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "showtime_provider_request_duration_seconds",
			Help:    "Duration of showtime provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// ShowtimeParseFailures counts day/time labels replaced by the fallback
	// timestamp.
	ShowtimeParseFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "showtime_label_parse_failures_total",
			Help: "Showtime labels that could not be parsed",
		},
	)

	// HTTPRequestDuration tracks request duration in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestsTotal tracks total number of HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)
