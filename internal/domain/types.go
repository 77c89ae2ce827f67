// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package domain holds the data types shared by the repository, ranking,
// and feed-orchestration layers. Keeping them in a leaf package avoids an
// import cycle between internal/repository and internal/ranking.
package domain

import "time"

// MaturityRating is a point on the ordered ladder G < PG < PG-13 < R < NC-17.
// An unrecognized rating is treated as permitted by any filter.
type MaturityRating string

const (
	MaturityG     MaturityRating = "G"
	MaturityPG    MaturityRating = "PG"
	MaturityPG13  MaturityRating = "PG-13"
	MaturityR     MaturityRating = "R"
	MaturityNC17  MaturityRating = "NC-17"
	MaturityUnset MaturityRating = ""
)

// maturityRank orders the ladder; ratings absent from this map are
// treated as unknown and therefore always permitted.
var maturityRank = map[MaturityRating]int{
	MaturityG:    0,
	MaturityPG:   1,
	MaturityPG13: 2,
	MaturityR:    3,
	MaturityNC17: 4,
}

// Exceeds reports whether r is strictly above cap on the ladder. An
// unrecognized rating on either side is never considered to exceed a cap.
func (r MaturityRating) Exceeds(cap MaturityRating) bool {
	rRank, rOK := maturityRank[r]
	capRank, capOK := maturityRank[cap]
	if !rOK || !capOK {
		return false
	}
	return rRank > capRank
}

// VideoMetadata identifies a candidate video within a tenant's catalog.
type VideoMetadata struct {
	ID             string
	Title          string
	Score          float64 // base popularity, [0, 100]
	Tags           []string
	MaturityRating MaturityRating
	PublishedAt    time.Time
}

// HasTag reports whether tag is present among the video's tags.
func (v VideoMetadata) HasTag(tag string) bool {
	for _, t := range v.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// UserSignals carries a user's watch history and tag affinities.
type UserSignals struct {
	UserHash   string
	WatchedIDs map[string]struct{}
	Affinities map[string]float64 // tag -> [0,1]
}

// IsColdStart reports whether the user has no recorded history at all.
func (s UserSignals) IsColdStart() bool {
	return len(s.WatchedIDs) == 0 && len(s.Affinities) == 0
}

// EmptySignals returns the cold-start signals object for userHash.
func EmptySignals(userHash string) UserSignals {
	return UserSignals{
		UserHash:   userHash,
		WatchedIDs: map[string]struct{}{},
		Affinities: map[string]float64{},
	}
}

// BoostWeights are the named scoring multipliers/additions. Keys absent
// from a TenantRankingRules.BoostWeights map default to 1.0.
type BoostWeights struct {
	Recency      float64
	Popularity   float64
	UserAffinity float64
}

// Filters are the tenant's candidate exclusion rules.
type Filters struct {
	ExcludeTags map[string]struct{}
	MaxMaturity MaturityRating // zero value means unset, i.e. no cap
}

// TenantRankingRules configures ranking for one tenant.
type TenantRankingRules struct {
	TenantID        string
	BoostWeights    map[string]float64 // recency, popularity, user_affinity
	Filters         Filters
	EditorialBoosts map[string]int // video id -> 0-based target position
}

// Weight returns the named boost weight, defaulting to 1.0 when absent.
func (r TenantRankingRules) Weight(name string) float64 {
	if r.BoostWeights == nil {
		return 1.0
	}
	if w, ok := r.BoostWeights[name]; ok {
		return w
	}
	return 1.0
}

// DefaultTenantRankingRules returns safe defaults: all weights 1.0, no
// filters, no editorial overrides.
func DefaultTenantRankingRules(tenantID string) TenantRankingRules {
	return TenantRankingRules{
		TenantID:        tenantID,
		BoostWeights:    map[string]float64{},
		Filters:         Filters{ExcludeTags: map[string]struct{}{}},
		EditorialBoosts: map[string]int{},
	}
}

// ScoredVideo is a transient ranking-pipeline value: a candidate plus its
// computed score and a diagnostic breakdown of how the score was reached.
type ScoredVideo struct {
	Video          VideoMetadata
	FinalScore     float64
	ScoreBreakdown map[string]float64
}

// FeedItem is one element of a FeedResponse.
type FeedItem struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	PlaybackURL    string   `json:"playback_url"`
	TrackingToken  string   `json:"tracking_token"`
	DebugScore     *float64 `json:"debug_score,omitempty"`
	ScoreBreakdown map[string]float64 `json:"score_breakdown,omitempty"`
}

// FeedResponse is the top-level HTTP response body for GET /v1/feed.
type FeedResponse struct {
	Items          []FeedItem `json:"items"`
	NextCursor     string     `json:"next_cursor,omitempty"`
	HasMore        bool       `json:"has_more"`
	Degraded       bool       `json:"degraded"`
	IsPersonalized bool       `json:"is_personalized"`
}
