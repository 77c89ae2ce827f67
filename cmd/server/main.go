// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main is the entry point for the Feedcast server application.
//
// Feedcast serves a personalized ranked feed of video items to client
// SDKs over HTTP. It composes a feed orchestrator, a deterministic
// ranking engine, a circuit breaker guarding the ranking path, and an
// HTTP edge that shapes cache-friendly, conditionally-cacheable
// responses.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, config.yaml, and environment
//     variables (Koanf v2)
//  2. Logging: zerolog, JSON in production or console in development
//  3. In-memory data stores: seeded candidate pools, fallback feeds,
//     and tenant ranking rules; no user signals are seeded, so every
//     user starts on the cold-start path (C4's backing store; a
//     real backing store is an external collaborator per spec.md §1)
//  4. TTL cache (C1) wrapping the candidate and tenant-config repositories
//  5. Feature-flag evaluator (C3), circuit breaker (C2), and ranking
//     engine (C5)
//  6. Feed orchestrator (C6) wiring C1-C5 together
//  7. HTTP server (C7): feed endpoint, health/readiness, metrics, and
//     the feature-flag admin endpoint
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, an optional config.yaml, then
// built-in defaults. See internal/config for the full key set.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting new connections and waits up to the configured shutdown
// timeout for in-flight requests to complete.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/feedcast/feedcast/docs" // registers the generated swagger docs
	"github.com/feedcast/feedcast/internal/api"
	"github.com/feedcast/feedcast/internal/breaker"
	"github.com/feedcast/feedcast/internal/cache"
	"github.com/feedcast/feedcast/internal/config"
	"github.com/feedcast/feedcast/internal/domain"
	"github.com/feedcast/feedcast/internal/feed"
	"github.com/feedcast/feedcast/internal/flags"
	"github.com/feedcast/feedcast/internal/logging"
	"github.com/feedcast/feedcast/internal/ranking"
	"github.com/feedcast/feedcast/internal/repository/cached"
	"github.com/feedcast/feedcast/internal/repository/memory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
		Caller: os.Getenv("LOG_CALLER") == "true",
	})

	logging.Info().
		Str("addr", cfg.Server.Addr).
		Bool("personalization_enabled", cfg.Flags.PersonalizationEnabled).
		Int("rollout_percentage", cfg.Flags.RolloutPercentage).
		Msg("starting feedcast")

	store := seedDemoStore()

	responseCache := cache.New(cfg.Cache.ResponseTTL(), cfg.Cache.JanitorInterval())
	defer responseCache.Close()

	candidateRepo := cached.NewCandidates(memory.NewCandidates(store), responseCache, cfg.Cache.ResponseTTL(), cfg.Cache.FallbackTTL())
	tenantConfigRepo := cached.NewTenantConfig(memory.NewTenantConfig(store), responseCache, cfg.Cache.ResponseTTL())
	signalsRepo := memory.NewSignals(store)

	flagsEvaluator := flags.New(flags.Settings{
		PersonalizationEnabled: cfg.Flags.PersonalizationEnabled,
		KillSwitchActive:       cfg.Flags.KillSwitchActive,
		RolloutPercentage:      cfg.Flags.RolloutPercentage,
		Version:                1,
	})

	circuitBreaker := breaker.New(breaker.Settings{
		Name:             "ranking",
		FailureThreshold: cfg.Breaker.FailureThreshold,
		RecoveryTimeout:  cfg.Breaker.RecoveryTimeout(),
	})

	rankingEngine := ranking.New(nil)

	orchestrator := feed.New(feed.Options{
		Flags:        flagsEvaluator,
		Signals:      signalsRepo,
		Candidates:   candidateRepo,
		TenantConfig: tenantConfigRepo,
		Ranker:       rankingEngine,
		Breaker:      circuitBreaker,
		Timeouts: feed.Timeouts{
			Signals:      cfg.Timeout.SignalStore(),
			Candidates:   cfg.Timeout.Candidate(),
			TenantConfig: cfg.Timeout.TenantConfig(),
		},
		CandidateCap: cfg.Feed.CandidateCap,
	})

	handler := api.NewHandler(orchestrator, flagsEvaluator, circuitBreaker, responseCache, cfg.Feed)
	mwConfig := api.DefaultChiMiddlewareConfig()
	router := api.NewRouter(handler, mwConfig)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrs := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", cfg.Server.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrs <- err
		}
		close(serverErrs)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErrs:
		if err != nil {
			logging.Fatal().Err(err).Msg("http server failed")
		}
	case <-ctx.Done():
		logging.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
		if closeErr := srv.Close(); closeErr != nil {
			logging.Error().Err(closeErr).Msg("forced close failed")
		}
	}

	logging.Info().Msg("feedcast stopped")
}

// seedDemoStore populates the in-memory repository backing C4 with a
// small fixture catalog. A production deployment replaces this with a
// real backing store behind the same repository interfaces; per
// spec.md §1 the backing store is an external collaborator, out of
// this system's scope.
func seedDemoStore() *memory.Store {
	store := memory.NewStore()

	now := time.Now()
	catalog := []struct {
		id    string
		title string
		score float64
		tags  []string
		age   time.Duration
	}{
		{"v1", "Match Highlights: Derby Day", 92, []string{"soccer", "highlights"}, time.Hour},
		{"v2", "Post-Game Interview", 71, []string{"soccer", "interview"}, 3 * time.Hour},
		{"v3", "Season Recap 2025", 85, []string{"soccer", "recap"}, 48 * time.Hour},
		{"v4", "Training Ground Exclusive", 60, []string{"soccer", "training"}, 6 * time.Hour},
		{"v5", "Top 10 Goals This Week", 97, []string{"soccer", "goals"}, 30 * time.Minute},
	}

	videos := make([]domain.VideoMetadata, 0, len(catalog))
	for _, c := range catalog {
		videos = append(videos, domain.VideoMetadata{
			ID:          c.id,
			Title:       c.title,
			Score:       c.score,
			Tags:        c.tags,
			PublishedAt: now.Add(-c.age),
		})
	}
	store.SeedCandidates("tenant_sports", videos, 10)

	store.SeedTenantConfig(domain.TenantRankingRules{
		TenantID: "tenant_sports",
		BoostWeights: map[string]float64{
			"recency":       1.2,
			"popularity":    1.0,
			"user_affinity": 1.5,
		},
	})

	return store
}
