package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/feedcast/feedcast/internal/apierr"
	"github.com/feedcast/feedcast/internal/breaker"
	"github.com/feedcast/feedcast/internal/cache"
	"github.com/feedcast/feedcast/internal/config"
	"github.com/feedcast/feedcast/internal/domain"
	"github.com/feedcast/feedcast/internal/feed"
	"github.com/feedcast/feedcast/internal/flags"
	"github.com/feedcast/feedcast/internal/ranking"
	"github.com/feedcast/feedcast/internal/repository/memory"
)

func testFeedConfig() config.FeedConfig {
	return config.FeedConfig{DefaultLimit: 20, MaxLimit: 50, CandidateCap: 200}
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	store := memory.NewStore()
	store.SeedCandidates("tenant_sports", []domain.VideoMetadata{
		{ID: "v1", Score: 90, PublishedAt: time.Now()},
		{ID: "v2", Score: 80, PublishedAt: time.Now()},
	}, 2)

	fl := flags.New(flags.Settings{PersonalizationEnabled: true, RolloutPercentage: 100})
	br := breaker.New(breaker.Settings{Name: "ranking", FailureThreshold: 3, RecoveryTimeout: time.Minute})
	orc := feed.New(feed.Options{
		Flags:                      fl,
		Signals:                    memory.NewSignals(store),
		Candidates:                 memory.NewCandidates(store),
		TenantConfig:               memory.NewTenantConfig(store),
		Ranker:                     ranking.New(nil),
		Breaker:                    br,
		Timeouts:                   feed.Timeouts{Signals: time.Second, Candidates: time.Second, TenantConfig: time.Second},
		CandidateCap:               200,
		SecondaryRolloutPercentage: func() int { return 100 },
	})
	responseCache := cache.New(time.Minute, time.Minute)
	t.Cleanup(responseCache.Close)
	return NewHandler(orc, fl, br, responseCache, testFeedConfig())
}

func TestGetFeedReturns200WithItems(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/feed?user_hash=u1&limit=10", nil)
	rec := httptest.NewRecorder()
	h.GetFeed(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("ETag") == "" {
		t.Fatalf("expected ETag header for non-empty response")
	}
	if rec.Header().Get("X-Personalized") != "true" {
		t.Fatalf("expected X-Personalized=true, got %q", rec.Header().Get("X-Personalized"))
	}
	if rec.Header().Get("Cache-Control") != "private, max-age=30" {
		t.Fatalf("unexpected Cache-Control: %q", rec.Header().Get("Cache-Control"))
	}
}

func TestGetFeedMissingUserHashIs400(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/feed", nil)
	rec := httptest.NewRecorder()
	h.GetFeed(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected valid JSON body, got error: %v", err)
	}
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf(`expected error envelope nested under "error", got %s`, rec.Body.String())
	}
	if errObj["code"] != string(apierr.Validation) {
		t.Fatalf("expected error.code=%s, got %v", apierr.Validation, errObj["code"])
	}
}

func TestGetFeedLimitOutOfRangeIs400(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/feed?user_hash=u1&limit=999", nil)
	rec := httptest.NewRecorder()
	h.GetFeed(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range limit, got %d", rec.Code)
	}
}

// TestGetFeedCorruptedCursorYieldsFirstPage locks in spec.md §6's MUST:
// a malformed cursor is never a validation error, it is treated as
// offset 0. Regression test for the boundary where an over-eager
// base64url struct tag on Cursor used to reject this with a 400 before
// ranking.decodeCursor's own offset-0 fallback ever ran.
func TestGetFeedCorruptedCursorYieldsFirstPage(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/feed?user_hash=u1&cursor=not-valid-base64!!", nil)
	rec := httptest.NewRecorder()
	h.GetFeed(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a corrupted cursor, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Items []domain.FeedItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected valid JSON body, got error: %v", err)
	}
	if len(body.Items) == 0 {
		t.Fatalf("expected the first page of items, got none: %s", rec.Body.String())
	}
	if body.Items[0].ID != "v1" {
		t.Fatalf("expected the first page to start at v1, got %q", body.Items[0].ID)
	}
}

func TestGetFeedHonorsConfiguredMaxLimitNotHardcoded(t *testing.T) {
	store := memory.NewStore()
	store.SeedCandidates("tenant_sports", []domain.VideoMetadata{
		{ID: "v1", Score: 90, PublishedAt: time.Now()},
	}, 1)
	fl := flags.New(flags.Settings{PersonalizationEnabled: true, RolloutPercentage: 100})
	br := breaker.New(breaker.Settings{Name: "ranking", FailureThreshold: 3, RecoveryTimeout: time.Minute})
	orc := feed.New(feed.Options{
		Flags:                      fl,
		Signals:                    memory.NewSignals(store),
		Candidates:                 memory.NewCandidates(store),
		TenantConfig:               memory.NewTenantConfig(store),
		Ranker:                     ranking.New(nil),
		Breaker:                    br,
		Timeouts:                   feed.Timeouts{Signals: time.Second, Candidates: time.Second, TenantConfig: time.Second},
		CandidateCap:               200,
		SecondaryRolloutPercentage: func() int { return 100 },
	})
	h := NewHandler(orc, fl, br, nil, config.FeedConfig{DefaultLimit: 20, MaxLimit: 200, CandidateCap: 200})

	// 60 is rejected by the package-level default (max=50) but must be
	// accepted here since this Handler's configured MaxLimit is 200.
	req := httptest.NewRequest(http.MethodGet, "/v1/feed?user_hash=u1&limit=60", nil)
	rec := httptest.NewRecorder()
	h.GetFeed(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with limit=60 under a MaxLimit=200 config, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetFeedSecondRequestWithMatchingETagIs304(t *testing.T) {
	h := newTestHandler(t)

	req1 := httptest.NewRequest(http.MethodGet, "/v1/feed?user_hash=u1&limit=10", nil)
	rec1 := httptest.NewRecorder()
	h.GetFeed(rec1, req1)
	etag := rec1.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag on first response")
	}

	req2 := httptest.NewRequest(http.MethodGet, "/v1/feed?user_hash=u1&limit=10", nil)
	req2.Header.Set("If-None-Match", etag)
	rec2 := httptest.NewRecorder()
	h.GetFeed(rec2, req2)

	if rec2.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", rec2.Code)
	}
	if rec2.Body.Len() != 0 {
		t.Fatalf("expected empty body on 304, got %q", rec2.Body.String())
	}
}

func TestGetFeedEmptyCandidatesOmitsETagAndUsesPublicCacheControl(t *testing.T) {
	store := memory.NewStore() // no candidates for this tenant
	fl := flags.New(flags.Settings{PersonalizationEnabled: true, RolloutPercentage: 100})
	br := breaker.New(breaker.Settings{Name: "ranking", FailureThreshold: 3, RecoveryTimeout: time.Minute})
	orc := feed.New(feed.Options{
		Flags:                      fl,
		Signals:                    memory.NewSignals(store),
		Candidates:                 memory.NewCandidates(store),
		TenantConfig:               memory.NewTenantConfig(store),
		Ranker:                     ranking.New(nil),
		Breaker:                    br,
		Timeouts:                   feed.Timeouts{Signals: time.Second, Candidates: time.Second, TenantConfig: time.Second},
		CandidateCap:               200,
		SecondaryRolloutPercentage: func() int { return 100 },
	})
	h := NewHandler(orc, fl, br, nil, testFeedConfig())

	req := httptest.NewRequest(http.MethodGet, "/v1/feed?user_hash=u1&limit=10&X-Tenant-ID=unknown", nil)
	req.Header.Set("X-Tenant-ID", "unknown-tenant")
	rec := httptest.NewRecorder()
	h.GetFeed(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with degraded fallback, got %d", rec.Code)
	}
	if rec.Header().Get("ETag") != "" {
		t.Fatalf("expected no ETag for empty items, got %q", rec.Header().Get("ETag"))
	}
	if rec.Header().Get("Cache-Control") != "public, max-age=30, stale-while-revalidate=15" {
		t.Fatalf("unexpected Cache-Control for degraded response: %q", rec.Header().Get("Cache-Control"))
	}
	if rec.Header().Get("X-Personalized") != "false" {
		t.Fatalf("expected X-Personalized=false, got %q", rec.Header().Get("X-Personalized"))
	}
}

func TestGetFeedDebugHeaderPopulatesScoreBreakdown(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/feed?user_hash=u1&limit=10", nil)
	req.Header.Set("X-Debug-Ranking", "true")
	rec := httptest.NewRecorder()
	h.GetFeed(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !contains(body, "debug_score") || !contains(body, "score_breakdown") {
		t.Fatalf("expected debug_score and score_breakdown in response, got %s", body)
	}
}

func TestGetFeedWithoutDebugHeaderOmitsScoreBreakdown(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/feed?user_hash=u1&limit=10", nil)
	rec := httptest.NewRecorder()
	h.GetFeed(rec, req)

	body := rec.Body.String()
	if contains(body, "debug_score") || contains(body, "score_breakdown") {
		t.Fatalf("expected no debug fields without X-Debug-Ranking header, got %s", body)
	}
}

func TestReadyIncludesCacheHitRate(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	h.Ready(rec, req)

	body := rec.Body.String()
	if !contains(body, "hit_rate") {
		t.Fatalf("expected ready body to include cache hit_rate, got %s", body)
	}
}

func TestReadyOmitsCacheWhenNil(t *testing.T) {
	store := memory.NewStore()
	fl := flags.New(flags.Settings{PersonalizationEnabled: true, RolloutPercentage: 100})
	br := breaker.New(breaker.Settings{Name: "ranking", FailureThreshold: 3, RecoveryTimeout: time.Minute})
	orc := feed.New(feed.Options{
		Flags:                      fl,
		Signals:                    memory.NewSignals(store),
		Candidates:                 memory.NewCandidates(store),
		TenantConfig:               memory.NewTenantConfig(store),
		Ranker:                     ranking.New(nil),
		Breaker:                    br,
		Timeouts:                   feed.Timeouts{Signals: time.Second, Candidates: time.Second, TenantConfig: time.Second},
		CandidateCap:               200,
		SecondaryRolloutPercentage: func() int { return 100 },
	})
	h := NewHandler(orc, fl, br, nil, testFeedConfig())

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	h.Ready(rec, req)

	if contains(rec.Body.String(), "hit_rate") {
		t.Fatalf("expected no cache field when cache is nil, got %s", rec.Body.String())
	}
}

func TestHealthReturnsHealthy(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadyIncludesBreakerAndFlags(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	h.Ready(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !contains(body, "circuit_breaker") || !contains(body, "feature_flags") {
		t.Fatalf("expected ready body to include circuit_breaker and feature_flags, got %s", body)
	}
}

func TestUpdateFlagsAppliesPartialUpdate(t *testing.T) {
	h := newTestHandler(t)
	before := h.flags.Snapshot()

	body := `{"kill_switch_active": true}`
	req := httptest.NewRequest(http.MethodPost, "/internal/flags", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.UpdateFlags(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	after := h.flags.Snapshot()
	if !after.KillSwitchActive {
		t.Fatalf("expected kill switch to be activated")
	}
	if after.PersonalizationEnabled != before.PersonalizationEnabled {
		t.Fatalf("expected untouched fields to be preserved")
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}
