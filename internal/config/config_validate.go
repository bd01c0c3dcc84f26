// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package config

import (
	"fmt"
	"strings"
)

// Validate checks that the configuration is coherent. It is called by
// Load before any component starts, so a bad retention value can never
// reach a destructive lifecycle run.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateMonitor(); err != nil {
		return err
	}
	if err := c.validateProbe(); err != nil {
		return err
	}
	if err := c.validateCensus(); err != nil {
		return err
	}
	if err := c.validateRetention(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("database.threads must be >= 0, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateMonitor() error {
	if c.Monitor.IntervalMinutes < 1 {
		return fmt.Errorf("monitor.interval_minutes must be >= 1, got %d", c.Monitor.IntervalMinutes)
	}
	if c.Monitor.PingThresholdMs <= 0 {
		return fmt.Errorf("monitor.ping_threshold_ms must be positive, got %g", c.Monitor.PingThresholdMs)
	}
	if c.Monitor.PlaceholderDaysBack < 0 {
		return fmt.Errorf("monitor.placeholder_days_back must be >= 0, got %d", c.Monitor.PlaceholderDaysBack)
	}
	if c.Monitor.LifecycleHour < 0 || c.Monitor.LifecycleHour > 23 {
		return fmt.Errorf("monitor.lifecycle_hour must be in [0,23], got %d", c.Monitor.LifecycleHour)
	}
	return nil
}

func (c *Config) validateProbe() error {
	if c.Probe.Timeout <= 0 {
		return fmt.Errorf("probe.timeout must be positive, got %v", c.Probe.Timeout)
	}
	// The threshold feeds a uint32 breaker setting; a negative value
	// would wrap and the breaker would never trip.
	if c.Probe.BreakerThreshold < 1 {
		return fmt.Errorf("probe.breaker_threshold must be >= 1, got %d", c.Probe.BreakerThreshold)
	}
	if c.Probe.BreakerCooldown <= 0 {
		return fmt.Errorf("probe.breaker_cooldown must be positive, got %v", c.Probe.BreakerCooldown)
	}
	return nil
}

func (c *Config) validateCensus() error {
	if !c.Census.Enabled {
		return nil
	}
	if c.Census.Workers < 1 {
		return fmt.Errorf("census.workers must be >= 1, got %d", c.Census.Workers)
	}
	if c.Census.Subnet != "" && !strings.Contains(c.Census.Subnet, "/") {
		return fmt.Errorf("census.subnet must be CIDR notation, got %q", c.Census.Subnet)
	}
	return nil
}

func (c *Config) validateRetention() error {
	// Delegates to the policy validation the lifecycle manager also runs;
	// failing here keeps a bad value from ever being persisted.
	return c.Retention.Policy().Validate()
}

func (c *Config) validateServer() error {
	if !c.Server.Enabled {
		return nil
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1,65535], got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled", "":
	default:
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console", "":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
