// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package api provides the HTTP edge (C7): the feed endpoint, health/readiness
probes, Prometheus metrics exposition, and an internal feature-flag admin
endpoint.

Key Components:

  - Router: Chi route configuration and middleware stack
  - Handler: request handlers for GET /v1/feed, /health, /health/ready,
    GET /internal/performance, and POST /internal/flags (/metrics is
    served by promhttp directly from the router)
  - Response formatting: standardized JSON envelopes via goccy/go-json
  - Validation: request parameter validation via go-playground/validator
  - Swagger: OpenAPI documentation served at /swagger/*, generated from
    the @-annotations on these handlers via swaggo/swag and rendered by
    swaggo/http-swagger

Usage Example:

	handler := api.NewHandler(orchestrator, flagsEvaluator, breaker, responseCache, cfg.Feed)
	router := api.NewRouter(handler, api.DefaultChiMiddlewareConfig())
	http.ListenAndServe(":8080", router.SetupChi())
*/
package api
