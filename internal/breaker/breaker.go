// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package breaker wraps github.com/sony/gobreaker/v2 to give the ranking
// path the three-state CLOSED/OPEN/HALF_OPEN failure gate with fallback
// dispatch: gobreaker's own state machine is configured so it reproduces
// consecutive-failure tripping and a fixed recovery timeout, and this
// package adds the Call(primary, fallback)/Reset/State/Name surface that
// gobreaker itself doesn't expose.
package breaker

import (
	"errors"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/feedcast/feedcast/internal/metrics"
)

// Settings configures a Breaker's trip and recovery behavior.
type Settings struct {
	Name             string
	FailureThreshold uint32 // consecutive failures before OPEN
	RecoveryTimeout  time.Duration
}

// Breaker is a named circuit breaker guarding one dependency (here, the
// ranking engine invocation) with a synchronous fallback path.
type Breaker struct {
	name     string
	settings Settings

	mu           sync.RWMutex
	cb           *gobreaker.CircuitBreaker[any]
	failureCount uint32
}

// New constructs a Breaker. MaxRequests is fixed at 1 so exactly one probe
// call decides the HALF_OPEN -> CLOSED/OPEN transition, matching the
// single-mutex, single-probe semantics of the source design.
func New(settings Settings) *Breaker {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 1
	}
	b := &Breaker{name: settings.Name, settings: settings}
	b.cb = b.newGobreaker()
	metrics.CircuitBreakerState.WithLabelValues(settings.Name).Set(metrics.StateToFloat("closed"))
	return b
}

func (b *Breaker) newGobreaker() *gobreaker.CircuitBreaker[any] {
	settings := b.settings
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Timeout:     settings.RecoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateString(from), stateString(to)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(metrics.StateToFloat(toStr))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				b.mu.Lock()
				b.failureCount = 0
				b.mu.Unlock()
			}
		},
	})
}

// Call executes primary through the breaker. If the breaker is open (or
// the half-open probe slot is occupied) or primary fails, fallback is
// invoked instead when non-nil; otherwise the error is returned as-is.
// A nil fallback surfaces gobreaker.ErrOpenState/ErrTooManyRequests (or
// primary's own error) to the caller, who is expected to map that to
// apierr.CircuitOpen.
func (b *Breaker) Call(primary func() (any, error), fallback func() (any, error)) (any, error) {
	b.mu.RLock()
	cb := b.cb
	b.mu.RUnlock()

	result, err := cb.Execute(primary)
	if err == nil {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		b.mu.Lock()
		b.failureCount = 0
		b.mu.Unlock()
		return result, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
	} else {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		b.mu.Lock()
		b.failureCount++
		b.mu.Unlock()
	}

	if fallback != nil {
		return fallback()
	}
	return nil, err
}

// State returns the breaker's current state as one of "closed",
// "half-open", "open".
func (b *Breaker) State() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return stateString(b.cb.State())
}

// Name returns the breaker's configured name.
func (b *Breaker) Name() string {
	return b.name
}

// FailureCount returns the current consecutive-failure count as observed
// by this wrapper (reset to 0 on any transition to CLOSED).
func (b *Breaker) FailureCount() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.failureCount
}

// Reset forces the breaker back to CLOSED with failure_count = 0. Intended
// for health/admin endpoints and test setup, per the "reset all
// singletons" testing hook. gobreaker has no exported reset, so this
// swaps in a freshly constructed instance with identical settings.
func (b *Breaker) Reset() {
	b.mu.Lock()
	b.cb = b.newGobreaker()
	b.failureCount = 0
	b.mu.Unlock()
	metrics.CircuitBreakerState.WithLabelValues(b.name).Set(metrics.StateToFloat("closed"))
}

func stateString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
