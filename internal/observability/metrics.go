package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	evaluationsTotal     *prometheus.CounterVec
	blockedQueriesTotal  *prometheus.CounterVec
	seedOperationsTotal  *prometheus.CounterVec
	progressCacheLookups *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cypherquest_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cypherquest_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cypherquest_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cypherquest_evaluations_total",
			Help: "Graded results by checker type and outcome.",
		}, []string{"checker", "outcome"})

		blockedQueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cypherquest_blocked_queries_total",
			Help: "Queries rejected before reaching the graph database.",
		}, []string{"reason"})

		seedOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cypherquest_seed_operations_total",
			Help: "Seeding requests by result.",
		}, []string{"result"})

		progressCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cypherquest_progress_cache_lookups_total",
			Help: "Progress cache lookups by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			evaluationsTotal,
			blockedQueriesTotal,
			seedOperationsTotal,
			progressCacheLookups,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// Evaluations exposes the grading outcome counter.
func Evaluations() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationsTotal
}

// BlockedQueries exposes the counter of rejected queries.
func BlockedQueries() *prometheus.CounterVec {
	RegisterMetrics()
	return blockedQueriesTotal
}

// SeedOperations exposes the seeding counter.
func SeedOperations() *prometheus.CounterVec {
	RegisterMetrics()
	return seedOperationsTotal
}

// ProgressCacheLookups exposes the progress cache hit/miss counter.
func ProgressCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return progressCacheLookups
}
