// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package middleware provides HTTP middleware not already covered by
internal/api's chi-native stack: gzip response compression and an
in-process latency percentile monitor.

Request ID propagation and Prometheus instrumentation live in
internal/api/chi_middleware.go instead, built directly against chi's
middleware conventions.

Key Components:

  - Compression: gzip compression for responses, honoring the client's
    Accept-Encoding negotiation that the feed endpoint's Vary header
    advertises.
  - Performance Monitor: request latency tracking with percentile
    calculations, feeding the /internal/performance endpoint's view
    into spec.md §5's per-dependency latency budgets.

Usage Example - Compression:

	import "github.com/feedcast/feedcast/internal/middleware"

	r.Use(func(next http.Handler) http.Handler {
	    return middleware.Compression(next.ServeHTTP)
	})

Usage Example - Performance Monitoring:

	perfMon := middleware.NewPerformanceMonitor(1000)
	r.Use(perfMon.Middleware)

	stats := perfMon.GetStats()
	for _, s := range stats {
	    fmt.Printf("%s: p50=%dms p95=%dms p99=%dms\n", s.Path, s.P50Duration, s.P95Duration, s.P99Duration)
	}

Thread Safety:

Both components are safe for concurrent use: Compression pools
per-goroutine gzip writers via sync.Pool, and PerformanceMonitor
guards its sliding window with sync.RWMutex.

See Also:

  - internal/api: HTTP handlers and their own middleware stack
  - internal/metrics: Prometheus metrics definitions
*/
package middleware
