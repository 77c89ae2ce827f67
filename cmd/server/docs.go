// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main provides the Feedcast HTTP server.
//
// @title Feedcast API
// @version 1.0
// @description Personalized video feed ranking service: candidate
// @description retrieval, deterministic ranking, editorial boosts, and
// @description a cache-friendly HTTP edge.
// @description
// @description ## Error Responses
// @description
// @description All non-2xx responses share this envelope:
// @description ```json
// @description {
// @description   "error": {
// @description     "code": "VALIDATION",
// @description     "message": "human-readable message",
// @description     "details": {}
// @description   },
// @description   "request_id": "..."
// @description }
// @description ```
//
// @contact.name GitHub Issues
// @contact.url https://github.com/feedcast/feedcast/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /
// @schemes http
//
// @tag.name Feed
// @tag.description The ranked feed endpoint
//
// @tag.name Core
// @tag.description Liveness and readiness probes
//
// @tag.name Admin
// @tag.description Feature-flag administration and performance introspection
package main
