// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feed implements the feed orchestrator (C6 in spec.md §4.6): the
// critical-path state machine that consults the feature-flag evaluator,
// fans out to the repositories, invokes the ranking engine through the
// circuit breaker, and guarantees a response under every failure mode.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/feedcast/feedcast/internal/apierr"
	"github.com/feedcast/feedcast/internal/breaker"
	"github.com/feedcast/feedcast/internal/domain"
	"github.com/feedcast/feedcast/internal/flags"
	"github.com/feedcast/feedcast/internal/logging"
	"github.com/feedcast/feedcast/internal/metrics"
	"github.com/feedcast/feedcast/internal/ranking"
	"github.com/feedcast/feedcast/internal/repository"
)

// RankFunc runs the ranking pipeline and is the unit of work protected by
// the circuit breaker. The default implementation just calls
// ranking.Engine.Rank and recovers a panic into an apierr.Ranking error,
// giving C2 a genuine failure signal to trip on; tests can substitute a
// RankFunc that fails deterministically.
type RankFunc func(ctx context.Context, candidates []domain.VideoMetadata, user domain.UserSignals, cfg domain.TenantRankingRules, limit int, cursor string) (result ranking.Result, err error)

// Timeouts bounds each repository fetch, per spec.md §5's cancellation
// and timeout requirements.
type Timeouts struct {
	Signals      time.Duration
	Candidates   time.Duration
	TenantConfig time.Duration
}

// Options configures an Orchestrator.
type Options struct {
	Flags        *flags.Evaluator
	Signals      repository.SignalsRepository
	Candidates   repository.CandidateRepository
	TenantConfig repository.TenantConfigRepository
	Ranker       *ranking.Engine
	Breaker      *breaker.Breaker
	Timeouts     Timeouts
	CandidateCap int
	// SecondaryRolloutPercentage is C6's own rollout threshold. Per
	// spec.md §9, it is intentionally evaluated with a different,
	// ad-hoc hash than C3's MD5 scheme; see DESIGN.md for the decision
	// to preserve rather than silently consolidate this duplication.
	SecondaryRolloutPercentage func() int
	Now                        func() time.Time
	RankFunc                   RankFunc
}

// Orchestrator implements the C6 state machine.
type Orchestrator struct {
	opts Options
}

// New constructs an Orchestrator. A nil RankFunc/Now falls back to
// defaultRankFunc/time.Now.
func New(opts Options) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RankFunc == nil {
		opts.RankFunc = defaultRankFunc(opts.Ranker)
	}
	if opts.SecondaryRolloutPercentage == nil {
		opts.SecondaryRolloutPercentage = func() int { return opts.Flags.Snapshot().RolloutPercentage }
	}
	return &Orchestrator{opts: opts}
}

func defaultRankFunc(engine *ranking.Engine) RankFunc {
	return func(ctx context.Context, candidates []domain.VideoMetadata, user domain.UserSignals, cfg domain.TenantRankingRules, limit int, cursor string) (result ranking.Result, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = apierr.Wrap(apierr.Ranking, "ranking pipeline panicked", fmt.Errorf("%v", r))
			}
		}()
		return engine.Rank(ctx, candidates, user, cfg, limit, cursor), nil
	}
}

// GetFeed runs the C6 state machine for one request. debug controls
// whether FeedItem.DebugScore/ScoreBreakdown are populated, the
// X-Debug-Ranking supplemented feature from SPEC_FULL.md §10.
func (o *Orchestrator) GetFeed(ctx context.Context, tenantID, userHash string, limit int, cursor string, debug bool) domain.FeedResponse {
	log := logging.Ctx(ctx)

	// Step 1: primary feature-flag gate.
	if !o.opts.Flags.Evaluate(tenantID, userHash) {
		return o.intentionalFallback(ctx, tenantID, limit, debug)
	}

	// Step 2: secondary rollout gate (intentionally duplicated, see DESIGN.md).
	rolloutPct := o.opts.SecondaryRolloutPercentage()
	if rolloutPct < 100 && secondaryRolloutBucket(userHash) >= rolloutPct {
		return o.intentionalFallback(ctx, tenantID, limit, debug)
	}

	// Step 3: concurrent fan-out fetch.
	signals, candidates, cfg, cfgFound, err := o.fetchAll(ctx, tenantID, userHash)
	if err != nil {
		log.Warn().Err(err).Str("tenant_id", tenantID).Msg("feed: repository fetch failed, degrading")
		return o.degradedFallback(ctx, tenantID, limit, debug)
	}

	// Step 4: resolve defaults / empty-candidate fallback.
	if !cfgFound {
		cfg = o.opts.TenantConfig.GetDefault(tenantID)
	}
	if len(candidates) == 0 {
		return o.degradedFallback(ctx, tenantID, limit, debug)
	}

	// Step 5: deterministic truncation.
	if cap := o.opts.CandidateCap; cap > 0 && len(candidates) > cap {
		candidates = candidates[:cap]
	}

	// Step 6: invoke C5 through C2.
	raw, err := o.opts.Breaker.Call(
		func() (any, error) { return o.opts.RankFunc(ctx, candidates, signals, cfg, limit, cursor) },
		func() (any, error) { return o.inlinePopularityFallback(candidates, limit), nil },
	)
	if err != nil {
		log.Warn().Err(err).Str("tenant_id", tenantID).Msg("feed: ranking unavailable, degrading")
		return o.degradedFallback(ctx, tenantID, limit, debug)
	}

	result, personalized, degraded := o.materialize(raw)
	resp := domain.FeedResponse{
		Items:          ranking.MaterializeFeedItems(result.Items, o.opts.Now(), debug),
		NextCursor:     result.NextCursor,
		HasMore:        result.HasMore,
		Degraded:       degraded,
		IsPersonalized: personalized,
	}
	o.recordOutcome(resp)
	return resp
}

// materialize distinguishes a real ranking.Result (via RankFunc, when the
// breaker was CLOSED/HALF_OPEN and primary succeeded) from the inline
// popularity fallback (a plain []domain.ScoredVideo, when the breaker's
// fallback ran instead).
func (o *Orchestrator) materialize(raw any) (ranking.Result, bool, bool) {
	switch v := raw.(type) {
	case ranking.Result:
		return v, true, false
	case []domain.ScoredVideo:
		return ranking.Result{Items: v}, false, true
	default:
		return ranking.Result{}, false, true
	}
}

// fetchAll launches the three repository fetches concurrently and joins
// them with first-error cancellation, per spec.md §5's fan-out and
// cancellation-propagation requirements.
func (o *Orchestrator) fetchAll(ctx context.Context, tenantID, userHash string) (domain.UserSignals, []domain.VideoMetadata, domain.TenantRankingRules, bool, error) {
	var (
		signals    domain.UserSignals
		candidates []domain.VideoMetadata
		cfg        domain.TenantRankingRules
		cfgFound   bool
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fetchCtx, cancel := context.WithTimeout(gctx, o.opts.Timeouts.Signals)
		defer cancel()
		start := time.Now()
		s, err := o.opts.Signals.GetSignals(fetchCtx, userHash)
		metrics.FeedRepositoryFetchDuration.WithLabelValues("signals").Observe(time.Since(start).Seconds())
		if err != nil {
			return apierr.Wrap(apierr.Unavailable, "signals fetch failed", err)
		}
		signals = s
		return nil
	})

	g.Go(func() error {
		fetchCtx, cancel := context.WithTimeout(gctx, o.opts.Timeouts.Candidates)
		defer cancel()
		start := time.Now()
		c, err := o.opts.Candidates.GetCandidates(fetchCtx, tenantID)
		metrics.FeedRepositoryFetchDuration.WithLabelValues("candidates").Observe(time.Since(start).Seconds())
		if err != nil {
			return apierr.Wrap(apierr.Unavailable, "candidate fetch failed", err)
		}
		candidates = c
		return nil
	})

	g.Go(func() error {
		fetchCtx, cancel := context.WithTimeout(gctx, o.opts.Timeouts.TenantConfig)
		defer cancel()
		start := time.Now()
		c, found, err := o.opts.TenantConfig.Get(fetchCtx, tenantID)
		metrics.FeedRepositoryFetchDuration.WithLabelValues("tenant_config").Observe(time.Since(start).Seconds())
		if err != nil {
			return apierr.Wrap(apierr.Unavailable, "tenant config fetch failed", err)
		}
		cfg, cfgFound = c, found
		return nil
	})

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			// Client cancellation: never mutate shared state past this point.
			return domain.UserSignals{}, nil, domain.TenantRankingRules{}, false, errors.Join(err, ctx.Err())
		}
		return domain.UserSignals{}, nil, domain.TenantRankingRules{}, false, err
	}

	return signals, candidates, cfg, cfgFound, nil
}

// inlinePopularityFallback ranks already-fetched candidates by raw score,
// no user filters, no editorial overrides, per spec.md §4.6 step 6.
func (o *Orchestrator) inlinePopularityFallback(candidates []domain.VideoMetadata, limit int) []domain.ScoredVideo {
	sorted := make([]domain.VideoMetadata, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].ID < sorted[j].ID
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]domain.ScoredVideo, len(sorted))
	for i, v := range sorted {
		out[i] = domain.ScoredVideo{Video: v, FinalScore: v.Score}
	}
	return out
}

// intentionalFallback returns the tenant's precomputed fallback feed with
// degraded=false: the kill switch/rollout gates worked as designed.
func (o *Orchestrator) intentionalFallback(ctx context.Context, tenantID string, limit int, debug bool) domain.FeedResponse {
	return o.buildFallback(ctx, tenantID, limit, false, debug)
}

// degradedFallback returns the tenant's precomputed fallback feed with
// degraded=true: something failed or data was missing.
func (o *Orchestrator) degradedFallback(ctx context.Context, tenantID string, limit int, debug bool) domain.FeedResponse {
	return o.buildFallback(ctx, tenantID, limit, true, debug)
}

func (o *Orchestrator) buildFallback(ctx context.Context, tenantID string, limit int, degraded, debug bool) domain.FeedResponse {
	fetchCtx, cancel := context.WithTimeout(ctx, o.opts.Timeouts.Candidates)
	defer cancel()

	feed, err := o.opts.Candidates.GetFallbackFeed(fetchCtx, tenantID)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("tenant_id", tenantID).Msg("feed: fallback feed unavailable")
		feed = nil
	}
	if len(feed) > limit {
		feed = feed[:limit]
	}

	scored := make([]domain.ScoredVideo, len(feed))
	for i, v := range feed {
		scored[i] = domain.ScoredVideo{Video: v, FinalScore: v.Score}
	}
	items := ranking.MaterializeFeedItems(scored, o.opts.Now(), debug)

	resp := domain.FeedResponse{
		Items:          items,
		HasMore:        false,
		Degraded:       degraded,
		IsPersonalized: false,
	}
	o.recordOutcome(resp)
	return resp
}

func (o *Orchestrator) recordOutcome(resp domain.FeedResponse) {
	metrics.FeedRequestsTotal.WithLabelValues(boolLabel(resp.IsPersonalized), boolLabel(resp.Degraded)).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// secondaryRolloutBucket is C6's own, deliberately distinct rollout
// bucketing: the sum of the user_hash's UTF-8 code points, modulo 100.
// This mirrors an inconsistency in the source system rather than fixing
// it; see spec.md §9 and DESIGN.md.
func secondaryRolloutBucket(userHash string) int {
	sum := 0
	for _, r := range userHash {
		sum += int(r)
	}
	return sum % 100
}
