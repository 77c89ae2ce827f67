// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package memory provides a fixture-driven, in-memory implementation of
// the internal/repository capability interfaces. It backs both the
// default standalone deployment and the test suite, mirroring the
// teacher's DataProvider fixture pattern used for the recommendation
// engine's tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/feedcast/feedcast/internal/domain"
)

// Store holds all fixture data behind a single mutex. Its three facade
// types (Signals, Candidates, TenantConfig) implement the corresponding
// repository interfaces without exposing this shared lock to callers.
type Store struct {
	mu sync.RWMutex

	signals       map[string]domain.UserSignals       // user_hash -> signals
	candidates    map[string][]domain.VideoMetadata   // tenant_id -> candidates
	fallbackFeeds map[string][]domain.VideoMetadata   // tenant_id -> precomputed fallback
	tenantConfigs map[string]domain.TenantRankingRules // tenant_id -> rules
}

// NewStore returns an empty fixture store.
func NewStore() *Store {
	return &Store{
		signals:       map[string]domain.UserSignals{},
		candidates:    map[string][]domain.VideoMetadata{},
		fallbackFeeds: map[string][]domain.VideoMetadata{},
		tenantConfigs: map[string]domain.TenantRankingRules{},
	}
}

// SeedSignals installs fixture user signals.
func (s *Store) SeedSignals(signals domain.UserSignals) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals[signals.UserHash] = signals
}

// SeedCandidates installs a tenant's candidate pool and derives its
// fallback feed as the candidates sorted by score descending, capped at
// maxFallback, unless the tenant already has a fallback feed. Any
// existing fallback counts, including one derived by an earlier
// SeedCandidates call, so re-seeding candidates does not refresh it.
func (s *Store) SeedCandidates(tenantID string, candidates []domain.VideoMetadata, maxFallback int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[tenantID] = candidates

	if _, ok := s.fallbackFeeds[tenantID]; ok {
		return
	}
	sorted := make([]domain.VideoMetadata, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	if len(sorted) > maxFallback {
		sorted = sorted[:maxFallback]
	}
	s.fallbackFeeds[tenantID] = sorted
}

// SeedFallbackFeed installs an explicit precomputed fallback feed,
// overriding the derived one from SeedCandidates.
func (s *Store) SeedFallbackFeed(tenantID string, feed []domain.VideoMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallbackFeeds[tenantID] = feed
}

// SeedTenantConfig installs fixture tenant ranking rules.
func (s *Store) SeedTenantConfig(rules domain.TenantRankingRules) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenantConfigs[rules.TenantID] = rules
}

// Signals is the SignalsRepository facade over Store.
type Signals struct{ store *Store }

// NewSignals returns a SignalsRepository backed by store.
func NewSignals(store *Store) *Signals { return &Signals{store: store} }

// GetSignals returns the fixture signals for userHash, or empty signals
// for an unrecognized user (the cold-start path), never an error.
func (r *Signals) GetSignals(_ context.Context, userHash string) (domain.UserSignals, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if s, ok := r.store.signals[userHash]; ok {
		return s, nil
	}
	return domain.EmptySignals(userHash), nil
}

// Candidates is the CandidateRepository facade over Store.
type Candidates struct{ store *Store }

// NewCandidates returns a CandidateRepository backed by store.
func NewCandidates(store *Store) *Candidates { return &Candidates{store: store} }

// GetCandidates returns the tenant's candidate pool, or an empty slice
// for an unknown tenant.
func (r *Candidates) GetCandidates(_ context.Context, tenantID string) ([]domain.VideoMetadata, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.candidates[tenantID], nil
}

// GetFallbackFeed returns the tenant's precomputed popularity-sorted
// fallback feed, or an empty slice if none was seeded.
func (r *Candidates) GetFallbackFeed(_ context.Context, tenantID string) ([]domain.VideoMetadata, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.fallbackFeeds[tenantID], nil
}

// TenantConfig is the TenantConfigRepository facade over Store.
type TenantConfig struct{ store *Store }

// NewTenantConfig returns a TenantConfigRepository backed by store.
func NewTenantConfig(store *Store) *TenantConfig { return &TenantConfig{store: store} }

// Get returns the tenant's explicit rules, if any.
func (r *TenantConfig) Get(_ context.Context, tenantID string) (domain.TenantRankingRules, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rules, ok := r.store.tenantConfigs[tenantID]
	return rules, ok, nil
}

// GetDefault returns safe default rules for tenantID.
func (r *TenantConfig) GetDefault(tenantID string) domain.TenantRankingRules {
	return domain.DefaultTenantRankingRules(tenantID)
}
