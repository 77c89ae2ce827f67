// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ranking implements the deterministic filter -> score -> sort ->
// editorial-override -> paginate pipeline (C5 in spec.md §4.5).
package ranking

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/feedcast/feedcast/internal/domain"
	"github.com/feedcast/feedcast/internal/metrics"
)

// recencyHalfLifeHours is the age at which the recency boost reaches
// zero, per spec.md §4.5 step 3.
const recencyHalfLifeHours = 48.0

// Reranker is a post-processing stage over an already-scored, sorted
// sequence. The only Reranker this repository ships is the no-op
// editorialReranker (editorial overrides themselves are applied by
// applyEditorialBoosts), but the interface (mirroring the teacher's
// diversity-reranking Name()/Rerank() shape) leaves room to add more
// without touching the pipeline's call site.
type Reranker interface {
	Name() string
	Rerank(ctx context.Context, items []domain.ScoredVideo) []domain.ScoredVideo
}

// Result is the outcome of one Rank invocation.
type Result struct {
	Items      []domain.ScoredVideo
	NextCursor string
	HasMore    bool
}

// Engine runs the ranking pipeline. It is stateless and safe for
// concurrent use; Now is overridable for deterministic tests.
type Engine struct {
	Now       func() time.Time
	editorial Reranker
}

// New constructs an Engine. now defaults to time.Now when nil.
func New(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	e := &Engine{Now: now}
	e.editorial = &editorialReranker{}
	return e
}

// Rank runs the full pipeline: decode cursor, filter, score, sort,
// editorial overrides, paginate. It never returns an error; empty input
// yields an empty, non-error result per spec.md §4.5's failure modes.
func (e *Engine) Rank(ctx context.Context, candidates []domain.VideoMetadata, user domain.UserSignals, cfg domain.TenantRankingRules, limit int, cursor string) Result {
	start := e.Now()
	defer func() {
		metrics.RankingDuration.Observe(time.Since(start).Seconds())
	}()

	offset := decodeCursor(cursor)

	filtered := e.filter(candidates, user, cfg)
	metrics.RankingCandidatesFiltered.Observe(float64(len(candidates) - len(filtered)))

	scored := e.score(filtered, user, cfg)

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].FinalScore != scored[j].FinalScore {
			return scored[i].FinalScore > scored[j].FinalScore
		}
		return scored[i].Video.ID < scored[j].Video.ID
	})

	withEditorial := e.editorial.Rerank(ctx, e.applyEditorialBoosts(scored, cfg))

	return e.paginate(withEditorial, offset, limit)
}

// filter drops watched, excluded-tag, and over-maturity candidates.
func (e *Engine) filter(candidates []domain.VideoMetadata, user domain.UserSignals, cfg domain.TenantRankingRules) []domain.VideoMetadata {
	out := make([]domain.VideoMetadata, 0, len(candidates))
	for _, v := range candidates {
		if _, watched := user.WatchedIDs[v.ID]; watched {
			continue
		}
		if excludedByTag(v, cfg.Filters.ExcludeTags) {
			continue
		}
		if cfg.Filters.MaxMaturity != "" && v.MaturityRating.Exceeds(cfg.Filters.MaxMaturity) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func excludedByTag(v domain.VideoMetadata, excludeTags map[string]struct{}) bool {
	if len(excludeTags) == 0 {
		return false
	}
	for _, t := range v.Tags {
		if _, excluded := excludeTags[t]; excluded {
			return true
		}
	}
	return false
}

// score computes each candidate's final_score and diagnostic breakdown
// per spec.md §4.5 step 3.
func (e *Engine) score(candidates []domain.VideoMetadata, user domain.UserSignals, cfg domain.TenantRankingRules) []domain.ScoredVideo {
	now := e.Now()
	wRecency := cfg.Weight("recency")
	wPopularity := cfg.Weight("popularity")
	wAffinity := cfg.Weight("user_affinity")

	out := make([]domain.ScoredVideo, 0, len(candidates))
	for _, v := range candidates {
		base := v.Score * wPopularity

		ageHours := math.Max(0, now.Sub(v.PublishedAt).Hours())
		recencyBoost := 0.0
		if ageHours < recencyHalfLifeHours {
			recencyBoost = wRecency * (1 - ageHours/recencyHalfLifeHours)
		}

		affinityBoost := 0.0
		for _, tag := range v.Tags {
			if a, ok := user.Affinities[tag]; ok && a > affinityBoost {
				affinityBoost = a
			}
		}
		affinityBoost *= wAffinity

		totalBoost := recencyBoost + affinityBoost
		final := base * (1 + totalBoost)

		out = append(out, domain.ScoredVideo{
			Video:      v,
			FinalScore: final,
			ScoreBreakdown: map[string]float64{
				"base":           base,
				"recency_boost":  recencyBoost,
				"affinity_boost": affinityBoost,
				"total_boost":    totalBoost,
			},
		})
	}
	return out
}

// applyEditorialBoosts extracts editorial items and reinserts them at
// their target positions per spec.md §4.5 step 5.
func (e *Engine) applyEditorialBoosts(scored []domain.ScoredVideo, cfg domain.TenantRankingRules) []domain.ScoredVideo {
	if len(cfg.EditorialBoosts) == 0 {
		return scored
	}

	nonEditorial := make([]domain.ScoredVideo, 0, len(scored))
	type pinned struct {
		item domain.ScoredVideo
		pos  int
	}
	var editorials []pinned

	for _, sv := range scored {
		if pos, ok := cfg.EditorialBoosts[sv.Video.ID]; ok {
			editorials = append(editorials, pinned{item: sv, pos: pos})
		} else {
			nonEditorial = append(nonEditorial, sv)
		}
	}
	if len(editorials) == 0 {
		return scored
	}

	// Within a shared target position, process descending by id: each
	// insertion at the same slot pushes the previous occupant one slot
	// later, so processing the larger id first and the smaller id last
	// leaves the smaller id in the earlier slot, per spec.md §4.5 step 5
	// ("the one with the smaller id is inserted first, resulting in the
	// other occupying a later slot").
	sort.SliceStable(editorials, func(i, j int) bool {
		if editorials[i].pos != editorials[j].pos {
			return editorials[i].pos < editorials[j].pos
		}
		return editorials[i].item.Video.ID > editorials[j].item.Video.ID
	})

	result := nonEditorial
	for _, ed := range editorials {
		at := ed.pos
		if at > len(result) {
			at = len(result)
		}
		result = append(result[:at], append([]domain.ScoredVideo{ed.item}, result[at:]...)...)
	}
	return result
}

// paginate slices [offset, offset+limit) and computes has_more/next_cursor.
func (e *Engine) paginate(items []domain.ScoredVideo, offset, limit int) Result {
	total := len(items)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := items[offset:end]
	hasMore := total > offset+limit

	res := Result{Items: page, HasMore: hasMore}
	if hasMore {
		res.NextCursor = encodeCursor(offset + limit)
	}
	return res
}

// editorialReranker is a no-op Reranker; editorial reinsertion happens in
// applyEditorialBoosts before this stage runs, but the interface is kept
// so a future post-processing step can be inserted without touching Rank.
type editorialReranker struct{}

func (r *editorialReranker) Name() string { return "editorial-boost" }

func (r *editorialReranker) Rerank(_ context.Context, items []domain.ScoredVideo) []domain.ScoredVideo {
	return items
}

// MaterializeFeedItems synthesizes FeedItems from scored videos per
// spec.md §4.5 step 7. debug controls whether debug_score/score_breakdown
// are populated (the X-Debug-Ranking supplemented feature).
func MaterializeFeedItems(items []domain.ScoredVideo, now time.Time, debug bool) []domain.FeedItem {
	out := make([]domain.FeedItem, 0, len(items))
	for _, sv := range items {
		fi := domain.FeedItem{
			ID:            sv.Video.ID,
			Title:         sv.Video.Title,
			PlaybackURL:   fmt.Sprintf("https://cdn.example.com/v/%s.m3u8", sv.Video.ID),
			TrackingToken: fmt.Sprintf("tok_%s_%d", sv.Video.ID, now.Unix()),
		}
		if debug {
			score := math.Round(sv.FinalScore*100) / 100
			fi.DebugScore = &score
			fi.ScoreBreakdown = sv.ScoreBreakdown
		}
		out = append(out, fi)
	}
	return out
}
