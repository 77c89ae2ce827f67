// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/feedcast/feedcast/internal/apierr"
	"github.com/feedcast/feedcast/internal/logging"
)

// errorBody is the nested error object per spec.md §6's envelope shape.
type errorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// errorResponse is the JSON body written for a non-2xx response:
// {"error":{"code":...,"message":...,"details":...}}, per spec.md §6.
type errorResponse struct {
	Error     errorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

// writeJSON encodes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("api: failed to encode response body")
	}
}

// writeAPIError translates err into an HTTP status and error envelope.
// *apierr.Error carries an explicit Kind; anything else maps to 500.
func writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apierr.KindOf(err)
	writeJSON(w, r, kind.Status(), errorResponse{
		Error: errorBody{
			Code:    string(kind),
			Message: err.Error(),
		},
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}

// writeValidationError writes a 400 with per-field validation details.
func writeValidationError(w http.ResponseWriter, r *http.Request, message string, details map[string]interface{}) {
	writeJSON(w, r, http.StatusBadRequest, errorResponse{
		Error: errorBody{
			Code:    string(apierr.Validation),
			Message: message,
			Details: details,
		},
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(v)
}
