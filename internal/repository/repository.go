// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package repository declares the data-access capabilities consumed by
// the feed orchestrator (C4 in spec.md §4.4). Deliberately split into
// three minimal interfaces rather than one mega-interface, per spec.md
// §9's "repository as capability" design note.
package repository

import (
	"context"

	"github.com/feedcast/feedcast/internal/domain"
)

// SignalsRepository resolves per-user personalization signals. GetSignals
// MUST return an empty-signals object for an unknown user rather than an
// error (the cold-start path); it never returns (zero-value, nil).
type SignalsRepository interface {
	GetSignals(ctx context.Context, userHash string) (domain.UserSignals, error)
}

// CandidateRepository resolves a tenant's candidate pool and its
// precomputed popularity-sorted fallback feed.
type CandidateRepository interface {
	GetCandidates(ctx context.Context, tenantID string) ([]domain.VideoMetadata, error)
	GetFallbackFeed(ctx context.Context, tenantID string) ([]domain.VideoMetadata, error)
}

// TenantConfigRepository resolves per-tenant ranking rules, with a
// separate accessor for the safe-default rules used when a tenant has no
// explicit configuration.
type TenantConfigRepository interface {
	Get(ctx context.Context, tenantID string) (domain.TenantRankingRules, bool, error)
	GetDefault(tenantID string) domain.TenantRankingRules
}
