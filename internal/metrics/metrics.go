// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics registers the Prometheus instrumentation exported at
// GET /metrics for the cache, circuit breaker, ranking, and HTTP layers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP edge

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcast_api_requests_total",
			Help: "Total number of API requests by route and status code.",
		},
		[]string{"route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedcast_api_request_duration_seconds",
			Help:    "API request duration in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"route"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcast_api_rate_limit_hits_total",
			Help: "Total number of requests rejected by rate limiting.",
		},
		[]string{"scope"}, // "ip" or "tenant"
	)

	// Cache (C1)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcast_cache_hits_total",
			Help: "Total number of cache hits.",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcast_cache_misses_total",
			Help: "Total number of cache misses.",
		},
		[]string{"cache"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feedcast_cache_entries",
			Help: "Current number of entries held by a cache instance.",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcast_cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry or explicit).",
		},
		[]string{"cache"},
	)

	// Circuit breaker (C2)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feedcast_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcast_circuit_breaker_requests_total",
			Help: "Total number of requests through the circuit breaker.",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcast_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions.",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Feature flags (C3)

	FeatureFlagEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcast_feature_flag_evaluations_total",
			Help: "Total number of feature flag evaluations by outcome.",
		},
		[]string{"outcome"}, // "kill_switch", "disabled", "rollout_excluded", "enabled"
	)

	FlagsSnapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedcast_flags_snapshot_version",
			Help: "Monotonic version of the currently active feature flag snapshot.",
		},
	)

	// Feed orchestrator (C6)

	FeedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcast_feed_requests_total",
			Help: "Total number of feed requests by outcome.",
		},
		[]string{"personalized", "degraded"},
	)

	FeedRepositoryFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedcast_feed_repository_fetch_duration_seconds",
			Help:    "Duration of concurrent repository fan-out fetches.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"repository"},
	)

	// Ranking engine (C5)

	RankingCandidatesFiltered = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedcast_ranking_candidates_filtered",
			Help:    "Number of candidates dropped by the filter stage per request.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200},
		},
	)

	RankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedcast_ranking_duration_seconds",
			Help:    "Duration of the filter/score/sort/editorial/paginate pipeline.",
			Buckets: []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.02, 0.05},
		},
	)
)

// StateToFloat converts a breaker state name to the numeric value used by
// CircuitBreakerState.
func StateToFloat(state string) float64 {
	switch state {
	case "closed":
		return 0
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return -1
	}
}
