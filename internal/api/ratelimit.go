// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/feedcast/feedcast/internal/apierr"
)

var rateLimitedErr = apierr.New(apierr.RateLimit, "rate limit exceeded")

// tenantLimiterRegistry lazily creates and caches one token-bucket limiter
// per tenant, per spec.md §10's per-tenant quota supplement. Limiters are
// never evicted; a long-running deployment with unbounded tenant churn
// would need an eviction policy, which is out of scope here.
type tenantLimiterRegistry struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newTenantLimiterRegistry(rps rate.Limit, burst int) *tenantLimiterRegistry {
	return &tenantLimiterRegistry{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

// Allow reports whether tenantID may proceed, consuming one token if so.
func (r *tenantLimiterRegistry) Allow(tenantID string) bool {
	r.mu.Lock()
	limiter, ok := r.limiters[tenantID]
	if !ok {
		limiter = rate.NewLimiter(r.rps, r.burst)
		r.limiters[tenantID] = limiter
	}
	r.mu.Unlock()
	return limiter.Allow()
}
