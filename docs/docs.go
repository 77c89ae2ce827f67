// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package docs holds the generated OpenAPI/Swagger specification for
// Feedcast's HTTP edge (C7), served at /swagger/*. It mirrors the shape
// swag init produces from the @-annotations on cmd/server/docs.go and
// internal/api/handlers.go: a SwaggerInfo descriptor plus an embedded
// spec template, registered with the swag package on import so
// http-swagger can look it up by instance name.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "GitHub Issues",
            "url": "https://github.com/feedcast/feedcast/issues"
        },
        "license": {
            "name": "AGPL-3.0-or-later",
            "url": "https://www.gnu.org/licenses/agpl-3.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/feed": {
            "get": {
                "tags": ["Feed"],
                "summary": "Get the ranked feed for a user",
                "parameters": [
                    {"type": "string", "name": "user_hash", "in": "query", "required": true},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "string", "name": "cursor", "in": "query"},
                    {"type": "string", "name": "X-Tenant-ID", "in": "header"},
                    {"type": "string", "name": "X-Debug-Ranking", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "Ranked feed"},
                    "304": {"description": "Not modified"},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["Core"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "Healthy"}}
            }
        },
        "/health/ready": {
            "get": {
                "tags": ["Core"],
                "summary": "Readiness probe with dependency status",
                "responses": {"200": {"description": "Ready"}}
            }
        },
        "/internal/flags": {
            "post": {
                "tags": ["Admin"],
                "summary": "Update the feature-flag snapshot",
                "responses": {
                    "200": {"description": "Updated flag snapshot"},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/internal/performance": {
            "get": {
                "tags": ["Admin"],
                "summary": "Per-route latency percentiles",
                "responses": {"200": {"description": "Performance stats"}}
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Admin"],
                "summary": "Prometheus metrics exposition",
                "responses": {"200": {"description": "Metrics in text exposition format"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger metadata, filled in by main's
// @-annotations at swag-generation time.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Feedcast API",
	Description:      "Personalized video feed ranking service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
