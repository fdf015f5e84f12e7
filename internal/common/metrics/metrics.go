package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "klicks_api_requests_total",
			Help: "Total number of backend API requests by endpoint and outcome",
		},
		[]string{"endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "klicks_api_request_duration_seconds",
			Help: "Duration of backend API requests in seconds",
		},
		[]string{"endpoint"},
	)

	InvoiceCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "klicks_invoice_cache_hits_total",
			Help: "Schedule invoice reads served from the local cache",
		},
	)

	InvoiceCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "klicks_invoice_cache_misses_total",
			Help: "Schedule invoice reads that went to the backend",
		},
	)

	SessionRefreshFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "klicks_session_refresh_failures_total",
			Help: "Background profile refreshes that failed and cleared the session",
		},
	)
)
