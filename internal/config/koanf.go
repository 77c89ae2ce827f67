// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order
// of priority. The first one found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/feedcast/config.yaml",
}

// ConfigPathEnvVar overrides the search paths with a single explicit file.
const ConfigPathEnvVar = "CONFIG_PATH"

// envMappings maps the flat environment variable names from spec.md §6 to
// koanf's dotted config paths.
var envMappings = map[string]string{
	"personalization_enabled":              "flags.personalization_enabled",
	"kill_switch_active":                   "flags.kill_switch_active",
	"rollout_percentage":                   "flags.rollout_percentage",
	"max_feed_limit":                       "feed.max_limit",
	"default_feed_limit":                   "feed.default_limit",
	"candidate_cap":                        "feed.candidate_cap",
	"ranking_timeout_ms":                   "timeout.ranking_ms",
	"cache_timeout_ms":                     "timeout.cache_ms",
	"signal_store_timeout_ms":              "timeout.signal_store_ms",
	"candidate_timeout_ms":                 "timeout.candidate_ms",
	"tenant_config_timeout_ms":             "timeout.tenant_config_ms",
	"circuit_breaker_failure_threshold":    "breaker.failure_threshold",
	"circuit_breaker_recovery_timeout_sec": "breaker.recovery_timeout_sec",
	"response_ttl_sec":                     "cache.response_ttl_sec",
	"fallback_ttl_sec":                     "cache.fallback_ttl_sec",
	"cache_janitor_interval_sec":           "cache.janitor_interval_sec",
	"server_addr":                          "server.addr",
	"server_shutdown_timeout_sec":          "server.shutdown_timeout_sec",
}

// envTransformFunc converts an environment variable name into a koanf
// dotted path, e.g. ROLLOUT_PERCENTAGE -> flags.rollout_percentage.
func envTransformFunc(key string) string {
	lower := strings.ToLower(key)
	if mapped, ok := envMappings[lower]; ok {
		return mapped
	}
	return lower
}

// Load resolves configuration in three layers, later layers overriding
// earlier ones: struct defaults, an optional YAML file, then environment
// variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Validate rejects configurations that would make the service misbehave
// rather than degrade, failing fast at startup.
func (c *Config) Validate() error {
	if c.Feed.MaxLimit <= 0 {
		return fmt.Errorf("feed.max_limit must be positive, got %d", c.Feed.MaxLimit)
	}
	if c.Feed.DefaultLimit <= 0 || c.Feed.DefaultLimit > c.Feed.MaxLimit {
		return fmt.Errorf("feed.default_limit (%d) must be in (0, max_limit=%d]", c.Feed.DefaultLimit, c.Feed.MaxLimit)
	}
	if c.Flags.RolloutPercentage < 0 || c.Flags.RolloutPercentage > 100 {
		return fmt.Errorf("flags.rollout_percentage must be in [0,100], got %d", c.Flags.RolloutPercentage)
	}
	if c.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("breaker.failure_threshold must be >= 1")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	return nil
}
