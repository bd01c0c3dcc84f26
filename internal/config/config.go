// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

// Package config loads and validates Netpulse configuration from three
// layered sources: struct defaults, an optional YAML file, and
// environment variables (highest priority).
package config

import (
	"time"

	"github.com/tomtom215/netpulse/internal/models"
)

// Config is the root configuration for all Netpulse components.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Monitor   MonitorConfig   `koanf:"monitor"`
	Probe     ProbeConfig     `koanf:"probe"`
	Census    CensusConfig    `koanf:"census"`
	Retention RetentionConfig `koanf:"retention"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatabaseConfig configures the embedded DuckDB store.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" is valid for tests.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB's memory usage, e.g. "512MB".
	MaxMemory string `koanf:"max_memory"`

	// Threads sets DuckDB's thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// MonitorConfig configures the measurement loop and rollup triggers.
type MonitorConfig struct {
	// IntervalMinutes is the default sampling interval. The live value
	// is kept in the store's config table so `netpulse interval` changes
	// apply without a restart; this is the seed/fallback.
	IntervalMinutes int `koanf:"interval_minutes"`

	// PingThresholdMs is the latency bound above which a sample counts
	// as bad regardless of plan.
	PingThresholdMs float64 `koanf:"ping_threshold_ms"`

	// PlaceholderDaysBack is how many past days the placeholder backfill
	// inspects after each measurement.
	PlaceholderDaysBack int `koanf:"placeholder_days_back"`

	// LifecycleHour is the local hour (0-23) at which the daily
	// retention lifecycle run is scheduled.
	LifecycleHour int `koanf:"lifecycle_hour"`
}

// ProbeConfig configures the speed-test collaborator.
type ProbeConfig struct {
	// Timeout bounds one full download+upload+ping measurement.
	Timeout time.Duration `koanf:"timeout"`

	// BreakerThreshold is the count of consecutive probe failures after
	// which the circuit opens and cycles are skipped.
	BreakerThreshold int `koanf:"breaker_threshold"`

	// BreakerCooldown is how long the circuit stays open before a
	// half-open trial probe.
	BreakerCooldown time.Duration `koanf:"breaker_cooldown"`
}

// CensusConfig configures the local-network device census.
type CensusConfig struct {
	Enabled bool `koanf:"enabled"`

	// Subnet is the CIDR to sweep, e.g. "192.168.1.0/24".
	// Empty = derive the /24 of the default route interface.
	Subnet string `koanf:"subnet"`

	// Workers bounds the concurrent reachability probes.
	Workers int `koanf:"workers"`

	// PingTimeout bounds a single host probe.
	PingTimeout time.Duration `koanf:"ping_timeout"`
}

// RetentionConfig seeds the three-tier retention policy. The live
// policy is stored in the config table and re-read at the start of
// every lifecycle run.
type RetentionConfig struct {
	SpeedTestDays       int `koanf:"speed_test_days"`
	SummaryDays         int `koanf:"summary_days"`
	WeeklyWeeks         int `koanf:"weekly_weeks"`
	WeeklyLookbackWeeks int `koanf:"weekly_lookback_weeks"`
}

// Policy converts the config section to a models.RetentionPolicy.
func (r RetentionConfig) Policy() models.RetentionPolicy {
	return models.RetentionPolicy{
		SpeedTestDays:       r.SpeedTestDays,
		SummaryDays:         r.SummaryDays,
		WeeklyWeeks:         r.WeeklyWeeks,
		WeeklyLookbackWeeks: r.WeeklyLookbackWeeks,
	}
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Enabled bool          `koanf:"enabled"`
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig configures the global zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "netpulse.duckdb",
			MaxMemory: "512MB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Monitor: MonitorConfig{
			IntervalMinutes:     10,
			PingThresholdMs:     50,
			PlaceholderDaysBack: 3,
			LifecycleHour:       3,
		},
		Probe: ProbeConfig{
			Timeout:          3 * time.Minute,
			BreakerThreshold: 3,
			BreakerCooldown:  30 * time.Minute,
		},
		Census: CensusConfig{
			Enabled:     true,
			Subnet:      "",
			Workers:     32,
			PingTimeout: time.Second,
		},
		Retention: RetentionConfig{
			SpeedTestDays:       90,
			SummaryDays:         365,
			WeeklyWeeks:         52,
			WeeklyLookbackWeeks: 4,
		},
		Server: ServerConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8421,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Caller: false,
		},
	}
}
