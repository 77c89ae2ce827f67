// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package flags implements the feature-flag evaluator (C3 in spec.md §4.3):
// a kill switch, a global personalization toggle, and a deterministic
// percentage rollout keyed by user_hash. Settings are held as an
// atomically-swapped snapshot so hot-path reads never block on a writer,
// per spec.md §9's "global mutable settings" note.
package flags

import (
	"crypto/md5" //nolint:gosec // used only for deterministic bucketing, not cryptography
	"encoding/binary"
	"sync/atomic"

	"github.com/feedcast/feedcast/internal/metrics"
)

// Settings is an immutable snapshot of the evaluator's configuration.
// A new Settings value is constructed and swapped in wholesale; existing
// readers keep observing the snapshot they loaded.
type Settings struct {
	PersonalizationEnabled bool
	KillSwitchActive       bool
	RolloutPercentage      int // [0,100]
	Version                int64
}

// Evaluator answers "should this user get a personalized feed" using an
// atomically-swapped Settings snapshot.
type Evaluator struct {
	settings atomic.Pointer[Settings]
}

// New constructs an Evaluator seeded with the given initial settings.
func New(initial Settings) *Evaluator {
	e := &Evaluator{}
	snap := initial
	snap.Version = 1
	e.settings.Store(&snap)
	metrics.FlagsSnapshotVersion.Set(float64(snap.Version))
	return e
}

// Snapshot returns the currently active settings.
func (e *Evaluator) Snapshot() Settings {
	return *e.settings.Load()
}

// Update atomically replaces the settings snapshot, incrementing its
// version. Safe to call concurrently with Evaluate and with other Update
// calls; the exposed test-reset hook (spec.md §9) is just this call with
// fresh values.
func (e *Evaluator) Update(next Settings) {
	prev := e.settings.Load()
	next.Version = prev.Version + 1
	e.settings.Store(&next)
	metrics.FlagsSnapshotVersion.Set(float64(next.Version))
}

// Evaluate decides whether tenantID/userHash should be personalized,
// following the precedence in spec.md §4.3: kill switch, then the global
// toggle, then a rollout-percentage bucket, else enabled. tenantID is
// accepted for interface symmetry with future tenant-scoped overrides but
// is not currently consulted.
func (e *Evaluator) Evaluate(tenantID, userHash string) bool {
	s := e.Snapshot()

	if s.KillSwitchActive {
		metrics.FeatureFlagEvaluations.WithLabelValues("kill_switch").Inc()
		return false
	}
	if !s.PersonalizationEnabled {
		metrics.FeatureFlagEvaluations.WithLabelValues("disabled").Inc()
		return false
	}
	if s.RolloutPercentage < 100 {
		if Bucket(userHash) >= s.RolloutPercentage {
			metrics.FeatureFlagEvaluations.WithLabelValues("rollout_excluded").Inc()
			return false
		}
	}
	metrics.FeatureFlagEvaluations.WithLabelValues("enabled").Inc()
	return true
}

// Bucket computes the required deterministic bucket in [0,100) for a
// user_hash: MD5 of its UTF-8 bytes, first 4 bytes read as a big-endian
// unsigned integer, modulo 100. Stable across processes for the same
// userHash, as spec.md §4.3 requires.
func Bucket(userHash string) int {
	sum := md5.Sum([]byte(userHash)) //nolint:gosec
	n := binary.BigEndian.Uint32(sum[:4])
	return int(n % 100)
}
