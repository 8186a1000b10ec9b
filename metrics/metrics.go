package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	StoreOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "document_search", Name: "store_operations_total", Help: "Number of document store operations by backend, operation and result."},
		[]string{"backend", "operation", "result"},
	)
	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "document_search", Name: "store_operation_duration_seconds", Help: "Latency of document store operations.", Buckets: prometheus.DefBuckets},
		[]string{"backend", "operation"},
	)
	SearchResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "document_search", Name: "search_results", Help: "Number of documents returned per search.", Buckets: prometheus.ExponentialBuckets(1, 4, 8)},
		[]string{"backend"},
	)
	RateLimitAllowed = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "document_search", Name: "rate_limit_allowed_total", Help: "Number of requests admitted by the rate limiter."},
	)
	RateLimitRejected = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "document_search", Name: "rate_limit_rejected_total", Help: "Number of requests rejected by the rate limiter."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(StoreOperations)
	reg.MustRegister(StoreOperationDuration)
	reg.MustRegister(SearchResults)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
