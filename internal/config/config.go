// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates the process-wide static configuration:
// server bind address, dependency timeouts, cache TTLs, circuit breaker
// parameters, and the initial values seeded into internal/flags' hot-
// reloadable snapshot.
package config

import "time"

// Config is the fully-resolved, validated configuration for one process.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Flags   FlagsConfig   `koanf:"flags"`
	Feed    FeedConfig    `koanf:"feed"`
	Timeout TimeoutConfig `koanf:"timeout"`
	Breaker BreakerConfig `koanf:"breaker"`
	Cache   CacheConfig   `koanf:"cache"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr                string `koanf:"addr"`
	ShutdownTimeoutSec int    `koanf:"shutdown_timeout_sec"`
}

func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSec) * time.Second
}

// FlagsConfig seeds the initial internal/flags.Settings snapshot.
// Corresponds to spec.md §6's PERSONALIZATION_ENABLED, KILL_SWITCH_ACTIVE,
// and ROLLOUT_PERCENTAGE keys.
type FlagsConfig struct {
	PersonalizationEnabled bool `koanf:"personalization_enabled"`
	KillSwitchActive       bool `koanf:"kill_switch_active"`
	RolloutPercentage      int  `koanf:"rollout_percentage"`
}

// FeedConfig bounds the feed page size, corresponding to spec.md §6's
// MAX_FEED_LIMIT and DEFAULT_FEED_LIMIT.
type FeedConfig struct {
	MaxLimit     int `koanf:"max_limit"`
	DefaultLimit int `koanf:"default_limit"`
	// CandidateCap is the deterministic truncation applied in C6 step 5.
	CandidateCap int `koanf:"candidate_cap"`
}

// TimeoutConfig bounds each dependency fetch in milliseconds, per
// spec.md §6's RANKING_TIMEOUT_MS, CACHE_TIMEOUT_MS,
// SIGNAL_STORE_TIMEOUT_MS (candidate/tenant-config budgets are this
// repository's own addition, following the same naming convention).
type TimeoutConfig struct {
	RankingMS      int `koanf:"ranking_ms"`
	CacheMS        int `koanf:"cache_ms"`
	SignalStoreMS  int `koanf:"signal_store_ms"`
	CandidateMS    int `koanf:"candidate_ms"`
	TenantConfigMS int `koanf:"tenant_config_ms"`
}

func (t TimeoutConfig) Ranking() time.Duration      { return time.Duration(t.RankingMS) * time.Millisecond }
func (t TimeoutConfig) Cache() time.Duration        { return time.Duration(t.CacheMS) * time.Millisecond }
func (t TimeoutConfig) SignalStore() time.Duration  { return time.Duration(t.SignalStoreMS) * time.Millisecond }
func (t TimeoutConfig) Candidate() time.Duration    { return time.Duration(t.CandidateMS) * time.Millisecond }
func (t TimeoutConfig) TenantConfig() time.Duration { return time.Duration(t.TenantConfigMS) * time.Millisecond }

// BreakerConfig configures C2, per spec.md §6's
// CIRCUIT_BREAKER_FAILURE_THRESHOLD and
// CIRCUIT_BREAKER_RECOVERY_TIMEOUT_SEC.
type BreakerConfig struct {
	FailureThreshold   uint32 `koanf:"failure_threshold"`
	RecoveryTimeoutSec int    `koanf:"recovery_timeout_sec"`
}

func (b BreakerConfig) RecoveryTimeout() time.Duration {
	return time.Duration(b.RecoveryTimeoutSec) * time.Second
}

// CacheConfig holds the *_TTL_SEC keys from spec.md §6 for the response
// and fallback caches.
type CacheConfig struct {
	ResponseTTLSec     int `koanf:"response_ttl_sec"`
	FallbackTTLSec     int `koanf:"fallback_ttl_sec"`
	JanitorIntervalSec int `koanf:"janitor_interval_sec"`
}

func (c CacheConfig) ResponseTTL() time.Duration {
	return time.Duration(c.ResponseTTLSec) * time.Second
}
func (c CacheConfig) FallbackTTL() time.Duration {
	return time.Duration(c.FallbackTTLSec) * time.Second
}
func (c CacheConfig) JanitorInterval() time.Duration {
	return time.Duration(c.JanitorIntervalSec) * time.Second
}

// Default returns the built-in defaults, applied before any config file or
// environment override is layered on top.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:               ":8080",
			ShutdownTimeoutSec: 15,
		},
		Flags: FlagsConfig{
			PersonalizationEnabled: true,
			KillSwitchActive:       false,
			RolloutPercentage:      100,
		},
		Feed: FeedConfig{
			MaxLimit:     50,
			DefaultLimit: 20,
			CandidateCap: 200,
		},
		Timeout: TimeoutConfig{
			RankingMS:      20,
			CacheMS:        5,
			SignalStoreMS:  10,
			CandidateMS:    15,
			TenantConfigMS: 10,
		},
		Breaker: BreakerConfig{
			FailureThreshold:   5,
			RecoveryTimeoutSec: 30,
		},
		Cache: CacheConfig{
			ResponseTTLSec:     30,
			FallbackTTLSec:     300,
			JanitorIntervalSec: 60,
		},
	}
}
