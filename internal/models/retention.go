// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package models

import (
	"fmt"
	"time"
)

// Keep-forever sentinels. A weekly retention at or above
// KeepForeverWeeks (or a summary retention at or above
// KeepForeverDays) disables the corresponding expiry tier.
const (
	KeepForeverWeeks = 999
	KeepForeverDays  = 9999
)

// RetentionPolicy is the process-wide three-tier data retention
// configuration. It is read at the start of each lifecycle run, so
// operator changes take effect on the next run.
//
// SpeedTestDays and SummaryDays age raw samples and daily summaries
// out of their tiers. WeeklyLookbackWeeks controls how far behind
// "now" the Tier-2 daily-to-weekly archival trails; WeeklyWeeks is the
// distinct Tier-3 expiry bound for weekly summaries. The two weekly
// knobs overlap in purpose but are kept separate deliberately.
type RetentionPolicy struct {
	SpeedTestDays       int `json:"speed_test_days"`
	SummaryDays         int `json:"summary_days"`
	WeeklyWeeks         int `json:"weekly_weeks"`
	WeeklyLookbackWeeks int `json:"weekly_lookback_weeks"`
}

// DefaultRetentionPolicy mirrors the shipped defaults: raw samples for
// 90 days, daily summaries for a year, weekly summaries for a year,
// Tier-2 trailing four weeks behind now.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		SpeedTestDays:       90,
		SummaryDays:         365,
		WeeklyWeeks:         52,
		WeeklyLookbackWeeks: 4,
	}
}

// Validate rejects values that would make a lifecycle run destructive
// in an unintended way. It must pass before any delete is issued.
func (p RetentionPolicy) Validate() error {
	if p.SpeedTestDays < 1 {
		return fmt.Errorf("retention: speed test days must be >= 1, got %d", p.SpeedTestDays)
	}
	if p.SummaryDays < 1 {
		return fmt.Errorf("retention: summary days must be >= 1, got %d", p.SummaryDays)
	}
	if p.WeeklyWeeks < 1 {
		return fmt.Errorf("retention: weekly weeks must be >= 1, got %d", p.WeeklyWeeks)
	}
	if p.WeeklyLookbackWeeks < 1 {
		return fmt.Errorf("retention: weekly lookback weeks must be >= 1, got %d", p.WeeklyLookbackWeeks)
	}
	return nil
}

// KeepWeekliesForever reports whether Tier-3 weekly expiry is disabled.
func (p RetentionPolicy) KeepWeekliesForever() bool {
	return p.WeeklyWeeks >= KeepForeverWeeks
}

// KeepSummariesForever reports whether the secondary daily-summary age
// bound is disabled.
func (p RetentionPolicy) KeepSummariesForever() bool {
	return p.SummaryDays >= KeepForeverDays
}

// StorageStats describes the current contents of the store for the
// operator-facing diagnostics surface.
type StorageStats struct {
	SpeedTests      int64      `json:"speed_tests"`
	DailySummaries  int64      `json:"daily_summaries"`
	WeeklySummaries int64      `json:"weekly_summaries"`
	SizeBytes       int64      `json:"size_bytes"`
	OldestSample    *time.Time `json:"oldest_sample,omitempty"`
	NewestSample    *time.Time `json:"newest_sample,omitempty"`
}
