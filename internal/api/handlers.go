// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"crypto/md5" //nolint:gosec // used only for a weak cache-validator ETag, not cryptography
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/feedcast/feedcast/internal/breaker"
	"github.com/feedcast/feedcast/internal/cache"
	"github.com/feedcast/feedcast/internal/config"
	"github.com/feedcast/feedcast/internal/domain"
	"github.com/feedcast/feedcast/internal/feed"
	"github.com/feedcast/feedcast/internal/flags"
	"github.com/feedcast/feedcast/internal/logging"
	"github.com/feedcast/feedcast/internal/middleware"
	"github.com/feedcast/feedcast/internal/validation"
)

const defaultTenantID = "tenant_sports"

// feedRequest is the validated shape of GET /v1/feed's inputs, per
// spec.md §6. Limit's upper bound is not a static struct tag: it is
// loaded from config.FeedConfig and enforced separately via
// validation.ValidateVar in parseFeedRequest, per spec.md §6's config
// table (MAX_FEED_LIMIT/DEFAULT_FEED_LIMIT are runtime-effective).
//
// Cursor carries no validate tag: spec.md §6 requires a malformed cursor
// to be treated as offset 0, never rejected with a validation error.
// ranking.decodeCursor already degrades a corrupted cursor to the first
// page, so Cursor is passed through unvalidated and handled there.
type feedRequest struct {
	UserHash string `validate:"required,min=1"`
	Limit    int    `validate:"min=1"`
	Cursor   string
	TenantID string `validate:"required"`
}

// Handler holds the dependencies backing every HTTP route.
type Handler struct {
	orchestrator *feed.Orchestrator
	flags        *flags.Evaluator
	breaker      *breaker.Breaker
	cache        *cache.Cache
	feedCfg      config.FeedConfig
	startTime    time.Time
}

// NewHandler constructs a Handler. cache may be nil, in which case Ready
// omits the cache hit-rate field.
func NewHandler(orchestrator *feed.Orchestrator, evaluator *flags.Evaluator, br *breaker.Breaker, responseCache *cache.Cache, feedCfg config.FeedConfig) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		flags:        evaluator,
		breaker:      br,
		cache:        responseCache,
		feedCfg:      feedCfg,
		startTime:    time.Now(),
	}
}

// GetFeed handles GET /v1/feed.
//
// @Summary Get a user's ranked feed
// @Tags Feed
// @Param user_hash query string true "Anonymized user identifier"
// @Param limit query int false "Number of items to return"
// @Param cursor query string false "Pagination cursor"
// @Param X-Tenant-ID header string false "Tenant identifier"
// @Success 200 {object} domain.FeedResponse
// @Failure 400 {object} errorResponse
// @Router /v1/feed [get]
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	req, verr := h.parseFeedRequest(r)
	if verr != nil {
		apiErr := verr.ToAPIError()
		writeValidationError(w, r, apiErr.Message, apiErr.Details)
		return
	}

	debug := r.Header.Get("X-Debug-Ranking") == "true"
	resp := h.orchestrator.GetFeed(r.Context(), req.TenantID, req.UserHash, req.Limit, req.Cursor, debug)

	etag := computeETag(resp.Items)
	if etag != "" {
		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}

	if resp.IsPersonalized && !resp.Degraded {
		w.Header().Set("Cache-Control", "private, max-age=30")
		w.Header().Set("Vary", "X-User-Hash")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=30, stale-while-revalidate=15")
		w.Header().Set("Vary", "Accept-Encoding")
	}
	w.Header().Set("X-Personalized", strconv.FormatBool(resp.IsPersonalized))

	writeJSON(w, r, http.StatusOK, resp)
}

// computeETag returns the weak ETag for a set of feed items, or "" when
// items is empty (spec.md §4.7: no items, no ETag).
func computeETag(items []domain.FeedItem) string {
	if len(items) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(item.ID)
	}
	sum := md5.Sum([]byte(sb.String())) //nolint:gosec
	return `W/"` + hexPrefix(sum[:], 16) + `"`
}

func hexPrefix(b []byte, n int) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 0, n)
	for i := 0; i < n/2 && i < len(b); i++ {
		out = append(out, hexDigits[b[i]>>4], hexDigits[b[i]&0x0f])
	}
	return string(out)
}

// parseFeedRequest parses and validates GET /v1/feed's inputs, applying
// this Handler's configured default and maximum feed limit rather than a
// hardcoded bound (spec.md §6's MAX_FEED_LIMIT/DEFAULT_FEED_LIMIT).
func (h *Handler) parseFeedRequest(r *http.Request) (feedRequest, *validation.RequestValidationError) {
	q := r.URL.Query()

	req := feedRequest{
		UserHash: q.Get("user_hash"),
		Limit:    h.feedCfg.DefaultLimit,
		Cursor:   q.Get("cursor"),
		TenantID: r.Header.Get("X-Tenant-ID"),
	}
	if req.TenantID == "" {
		req.TenantID = defaultTenantID
	}
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			req.Limit = n
		} else {
			req.Limit = -1 // force the validator to reject a non-numeric limit
		}
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		return req, verr
	}
	if verr := validation.ValidateVar(req.Limit, fmt.Sprintf("max=%d", h.feedCfg.MaxLimit), "Limit"); verr != nil {
		return req, verr
	}
	return req, nil
}

// Health handles GET /health.
//
// @Summary Liveness probe
// @Tags Core
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready handles GET /health/ready.
//
// @Summary Readiness probe with dependency status
// @Tags Core
// @Success 200 {object} map[string]interface{}
// @Router /health/ready [get]
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	settings := h.flags.Snapshot()
	body := map[string]interface{}{
		"status": "ready",
		"circuit_breaker": map[string]string{
			"name":  h.breaker.Name(),
			"state": h.breaker.State(),
		},
		"feature_flags": map[string]interface{}{
			"personalization_enabled": settings.PersonalizationEnabled,
			"kill_switch_active":      settings.KillSwitchActive,
			"rollout_percentage":      settings.RolloutPercentage,
			"version":                 settings.Version,
		},
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	}
	if h.cache != nil {
		stats := h.cache.GetStats()
		body["cache"] = map[string]interface{}{
			"hit_rate":   h.cache.HitRate(),
			"hits":       stats.Hits,
			"misses":     stats.Misses,
			"evictions":  stats.Evictions,
			"total_keys": stats.TotalKeys,
		}
	}
	writeJSON(w, r, http.StatusOK, body)
}

// flagsUpdateRequest is the body accepted by POST /internal/flags, the
// admin endpoint supplemented in SPEC_FULL.md §10 for hot-reloading the
// feature-flag snapshot without a restart.
type flagsUpdateRequest struct {
	PersonalizationEnabled *bool `json:"personalization_enabled"`
	KillSwitchActive       *bool `json:"kill_switch_active"`
	RolloutPercentage      *int  `json:"rollout_percentage" validate:"omitempty,gte=0,lte=100"`
}

// UpdateFlags handles POST /internal/flags.
//
// @Summary Update the feature-flag snapshot
// @Tags Admin
// @Accept json
// @Param request body flagsUpdateRequest true "Flag fields to update"
// @Success 200 {object} flags.Settings
// @Failure 400 {object} errorResponse
// @Router /internal/flags [post]
func (h *Handler) UpdateFlags(w http.ResponseWriter, r *http.Request) {
	var body flagsUpdateRequest
	if err := decodeJSON(r, &body); err != nil {
		writeValidationError(w, r, "malformed request body", nil)
		return
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		apiErr := verr.ToAPIError()
		writeValidationError(w, r, apiErr.Message, apiErr.Details)
		return
	}

	current := h.flags.Snapshot()
	next := current
	if body.PersonalizationEnabled != nil {
		next.PersonalizationEnabled = *body.PersonalizationEnabled
	}
	if body.KillSwitchActive != nil {
		next.KillSwitchActive = *body.KillSwitchActive
	}
	if body.RolloutPercentage != nil {
		next.RolloutPercentage = *body.RolloutPercentage
	}
	h.flags.Update(next)

	logging.Ctx(r.Context()).Info().
		Bool("personalization_enabled", next.PersonalizationEnabled).
		Bool("kill_switch_active", next.KillSwitchActive).
		Int("rollout_percentage", next.RolloutPercentage).
		Msg("api: feature flag snapshot updated")

	writeJSON(w, r, http.StatusOK, next)
}

// Performance returns a handler for GET /internal/performance, exposing
// per-route latency percentiles gathered by the given monitor, per
// spec.md §5's per-dependency latency budgets.
//
// @Summary Per-route latency percentiles
// @Tags Admin
// @Success 200 {object} map[string]interface{}
// @Router /internal/performance [get]
func (h *Handler) Performance(monitor *middleware.PerformanceMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, monitor.GetStats())
	}
}
