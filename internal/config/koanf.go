// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

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

// DefaultConfigPaths lists where config files are searched, in order of
// priority. The first file found wins.
var DefaultConfigPaths = []string{
	"netpulse.yaml",
	"netpulse.yml",
	"/etc/netpulse/config.yaml",
	"/etc/netpulse/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "NETPULSE_CONFIG"

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: explicit path if given, otherwise the first default
//     path that exists (optional)
//  3. Environment variables: override any setting
//
// Precedence: ENV > file > defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file. An explicitly named file must
	// exist; the default search paths are best-effort.
	configPath := path
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// NETPULSE_PING_THRESHOLD_MS -> monitor.ping_threshold_ms, etc.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches the env override and then the default paths.
// Returns the first file found, or "" if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc maps environment variable names to koanf config
// paths. Unmapped variables return "" and are skipped, so random
// environment noise never pollutes the config.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Database
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Monitor
		"netpulse_interval_minutes":  "monitor.interval_minutes",
		"netpulse_ping_threshold_ms": "monitor.ping_threshold_ms",
		"netpulse_placeholder_days":  "monitor.placeholder_days_back",
		"netpulse_lifecycle_hour":    "monitor.lifecycle_hour",

		// Probe
		"probe_timeout":           "probe.timeout",
		"probe_breaker_threshold": "probe.breaker_threshold",
		"probe_breaker_cooldown":  "probe.breaker_cooldown",

		// Census
		"census_enabled":      "census.enabled",
		"census_subnet":       "census.subnet",
		"census_workers":      "census.workers",
		"census_ping_timeout": "census.ping_timeout",

		// Retention
		"retention_speed_test_days":       "retention.speed_test_days",
		"retention_summary_days":          "retention.summary_days",
		"retention_weekly_weeks":          "retention.weekly_weeks",
		"retention_weekly_lookback_weeks": "retention.weekly_lookback_weeks",

		// Server
		"http_enabled": "server.enabled",
		"http_host":    "server.host",
		"http_port":    "server.port",
		"http_timeout": "server.timeout",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
