// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package apierr defines the error kinds used across the feed pipeline and
// their mapping to HTTP status codes, per the error handling policy: the
// feed path absorbs everything it can into a degraded fallback and only
// surfaces a status code when a fallback itself cannot be constructed.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation-policy and status-mapping
// purposes.
type Kind string

const (
	Validation  Kind = "VALIDATION"
	NotFound    Kind = "NOT_FOUND"
	RateLimit   Kind = "RATE_LIMIT"
	Unavailable Kind = "UNAVAILABLE"
	CircuitOpen Kind = "CIRCUIT_OPEN"
	Ranking     Kind = "RANKING"
	Internal    Kind = "INTERNAL"
)

// Status returns the HTTP status code this kind maps to when it does
// surface to a client (i.e. when no fallback absorbs it first).
func (k Kind) Status() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case RateLimit:
		return http.StatusTooManyRequests
	case Unavailable, CircuitOpen, Ranking:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a typed error carrying a Kind plus a wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an *Error of the given kind with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an *Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithDetails attaches diagnostic details and returns the receiver for
// chaining at the call site.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error, else
// returns Internal.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return Internal
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
