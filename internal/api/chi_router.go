// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides HTTP routing using the Chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/feedcast/feedcast/internal/middleware"
)

// Router wires a Handler to the chi mux and its middleware stack.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	perfMonitor   *middleware.PerformanceMonitor
}

// NewRouter constructs a Router.
func NewRouter(handler *Handler, mwConfig *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(mwConfig),
		perfMonitor:   middleware.NewPerformanceMonitor(1000),
	}
}

// SetupChi builds the complete HTTP handler.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(SecurityHeaders())
	r.Use(router.chiMiddleware.RateLimitByIP())
	r.Use(router.perfMonitor.Middleware)

	r.Get("/health", router.handler.Health)
	r.Get("/health/ready", router.handler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	r.Route("/v1", func(r chi.Router) {
		r.Use(PrometheusMetrics(func(*http.Request) string { return "/v1/feed" }))
		r.Use(router.chiMiddleware.RateLimitByTenant(tenantIDFromRequest))
		r.Use(func(next http.Handler) http.Handler {
			return middleware.Compression(next.ServeHTTP)
		})
		r.Get("/feed", router.handler.GetFeed)
	})

	r.Route("/internal", func(r chi.Router) {
		r.Post("/flags", router.handler.UpdateFlags)
		r.Get("/performance", router.handler.Performance(router.perfMonitor))
	})

	return r
}

// tenantIDFromRequest resolves the per-tenant rate-limit key the same way
// the feed handler resolves the effective tenant.
func tenantIDFromRequest(r *http.Request) string {
	tenantID := r.Header.Get("X-Tenant-ID")
	if tenantID == "" {
		return defaultTenantID
	}
	return tenantID
}
