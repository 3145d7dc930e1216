package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_store_operations_total",
			Help: "Total number of record store operations",
		},
		[]string{"collection", "operation", "outcome"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashboard_store_operation_duration_seconds",
			Help:    "Duration of record store operations in seconds",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"collection", "operation"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_cache_lookups_total",
			Help: "Redis cache lookups by result",
		},
		[]string{"collection", "result"},
	)

	ViewReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_view_reloads_total",
			Help: "Collection view reloads by outcome (ready, empty, error, stale)",
		},
		[]string{"collection", "outcome"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dashboard_http_request_duration_seconds",
			Help: "HTTP request latency in seconds",
		},
		[]string{"method", "route"},
	)

	ProspectsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_prospects_imported_total",
			Help: "Prospects created by lead imports",
		},
		[]string{"source"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_notifications_sent_total",
			Help: "Outbound notifications by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)
)

// Outcome labels an operation result for the counters above.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
