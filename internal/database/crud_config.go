// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tomtom215/netpulse/internal/models"
)

// Keys in the app_config table. Retention values stored here override
// the file/env configuration so operator changes survive restarts.
const (
	KeyMonitorInterval     = "monitoring_interval"
	KeySpeedTestDays       = "retention_speed_test_days"
	KeySummaryDays         = "retention_summary_days"
	KeyWeeklyWeeks         = "retention_weekly_weeks"
	KeyWeeklyLookbackWeeks = "retention_weekly_lookback_weeks"
)

// GetConfig returns the value for key, or fallback when the key is
// absent.
func (db *DB) GetConfig(ctx context.Context, key, fallback string) (string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM app_config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read config key %q: %w", key, err)
	}
	return value, nil
}

// SetConfig upserts one configuration key.
func (db *DB) SetConfig(ctx context.Context, key, value string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO app_config (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at`,
		key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set config key %q: %w", key, err)
	}
	return nil
}

// getConfigInt reads an integer config key with a fallback, failing on
// unparseable stored values rather than silently using the fallback.
func (db *DB) getConfigInt(ctx context.Context, key string, fallback int) (int, error) {
	raw, err := db.GetConfig(ctx, key, strconv.Itoa(fallback))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config key %q holds non-integer value %q: %w", key, raw, err)
	}
	return n, nil
}

// MonitorInterval returns the live sampling interval, seeded from the
// given default on first read.
func (db *DB) MonitorInterval(ctx context.Context, fallbackMinutes int) (time.Duration, error) {
	minutes, err := db.getConfigInt(ctx, KeyMonitorInterval, fallbackMinutes)
	if err != nil {
		return 0, err
	}
	if minutes < 1 {
		return 0, fmt.Errorf("stored monitoring interval %d is below the 1 minute minimum", minutes)
	}
	return time.Duration(minutes) * time.Minute, nil
}

// SetMonitorInterval stores the sampling interval in minutes.
func (db *DB) SetMonitorInterval(ctx context.Context, minutes int) error {
	if minutes < 1 {
		return fmt.Errorf("monitoring interval must be >= 1 minute, got %d", minutes)
	}
	return db.SetConfig(ctx, KeyMonitorInterval, strconv.Itoa(minutes))
}

// RetentionPolicy assembles the live retention policy from the config
// table, using the given defaults for unset keys. The result is
// validated before it is returned: a corrupted stored value fails here,
// before any lifecycle deletion can act on it.
func (db *DB) RetentionPolicy(ctx context.Context, defaults models.RetentionPolicy) (models.RetentionPolicy, error) {
	var (
		policy models.RetentionPolicy
		err    error
	)

	if policy.SpeedTestDays, err = db.getConfigInt(ctx, KeySpeedTestDays, defaults.SpeedTestDays); err != nil {
		return models.RetentionPolicy{}, err
	}
	if policy.SummaryDays, err = db.getConfigInt(ctx, KeySummaryDays, defaults.SummaryDays); err != nil {
		return models.RetentionPolicy{}, err
	}
	if policy.WeeklyWeeks, err = db.getConfigInt(ctx, KeyWeeklyWeeks, defaults.WeeklyWeeks); err != nil {
		return models.RetentionPolicy{}, err
	}
	if policy.WeeklyLookbackWeeks, err = db.getConfigInt(ctx, KeyWeeklyLookbackWeeks, defaults.WeeklyLookbackWeeks); err != nil {
		return models.RetentionPolicy{}, err
	}

	if err := policy.Validate(); err != nil {
		return models.RetentionPolicy{}, err
	}
	return policy, nil
}

// SetRetentionPolicy persists a validated policy to the config table.
func (db *DB) SetRetentionPolicy(ctx context.Context, policy models.RetentionPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	pairs := map[string]int{
		KeySpeedTestDays:       policy.SpeedTestDays,
		KeySummaryDays:         policy.SummaryDays,
		KeyWeeklyWeeks:         policy.WeeklyWeeks,
		KeyWeeklyLookbackWeeks: policy.WeeklyLookbackWeeks,
	}
	for key, value := range pairs {
		if err := db.SetConfig(ctx, key, strconv.Itoa(value)); err != nil {
			return err
		}
	}
	return nil
}
