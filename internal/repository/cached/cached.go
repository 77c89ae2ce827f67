// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cached wraps repository.CandidateRepository and
// repository.TenantConfigRepository with the C1 TTL cache from
// internal/cache, following spec.md §4.1's get-or-compute contract:
// the wrapped repository's fetch only runs on a cache miss, and never
// while any cache lock is held.
package cached

import (
	"context"
	"fmt"
	"time"

	"github.com/feedcast/feedcast/internal/cache"
	"github.com/feedcast/feedcast/internal/domain"
	"github.com/feedcast/feedcast/internal/repository"
)

// Candidates decorates a CandidateRepository with a TTL cache keyed by
// tenant ID. GetCandidates and GetFallbackFeed are cached under separate
// key prefixes since their TTLs may legitimately differ.
type Candidates struct {
	next        repository.CandidateRepository
	store       *cache.Cache
	responseTTL time.Duration
	fallbackTTL time.Duration
}

// NewCandidates wraps next with a cache, using responseTTL for
// GetCandidates results and fallbackTTL for GetFallbackFeed results.
func NewCandidates(next repository.CandidateRepository, store *cache.Cache, responseTTL, fallbackTTL time.Duration) *Candidates {
	return &Candidates{next: next, store: store, responseTTL: responseTTL, fallbackTTL: fallbackTTL}
}

func (c *Candidates) GetCandidates(ctx context.Context, tenantID string) ([]domain.VideoMetadata, error) {
	key := fmt.Sprintf("candidates:%s", tenantID)
	v, err := c.store.GetOrSet(key, c.responseTTL, func() (interface{}, error) {
		return c.next.GetCandidates(ctx, tenantID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.VideoMetadata), nil
}

func (c *Candidates) GetFallbackFeed(ctx context.Context, tenantID string) ([]domain.VideoMetadata, error) {
	key := fmt.Sprintf("fallback:%s", tenantID)
	v, err := c.store.GetOrSet(key, c.fallbackTTL, func() (interface{}, error) {
		return c.next.GetFallbackFeed(ctx, tenantID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.VideoMetadata), nil
}

// TenantConfig decorates a TenantConfigRepository with a TTL cache.
// GetDefault is a pure function of its input and is never cached.
type TenantConfig struct {
	next  repository.TenantConfigRepository
	store *cache.Cache
	ttl   time.Duration
}

// NewTenantConfig wraps next with a cache using the given TTL.
func NewTenantConfig(next repository.TenantConfigRepository, store *cache.Cache, ttl time.Duration) *TenantConfig {
	return &TenantConfig{next: next, store: store, ttl: ttl}
}

type tenantConfigResult struct {
	rules domain.TenantRankingRules
	found bool
}

func (t *TenantConfig) Get(ctx context.Context, tenantID string) (domain.TenantRankingRules, bool, error) {
	key := fmt.Sprintf("tenant_config:%s", tenantID)
	v, err := t.store.GetOrSet(key, t.ttl, func() (interface{}, error) {
		rules, found, err := t.next.Get(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		return tenantConfigResult{rules: rules, found: found}, nil
	})
	if err != nil {
		return domain.TenantRankingRules{}, false, err
	}
	res := v.(tenantConfigResult)
	return res.rules, res.found, nil
}

func (t *TenantConfig) GetDefault(tenantID string) domain.TenantRankingRules {
	return t.next.GetDefault(tenantID)
}
