// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

// Package retention ages data through the three-tier lifecycle: raw
// samples roll into daily summaries, daily summaries into weekly
// summaries, and weekly summaries eventually expire. Every tier
// archives before it deletes, so an interrupted run can always be
// re-run without losing data.
package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/netpulse/internal/logging"
	"github.com/tomtom215/netpulse/internal/metrics"
	"github.com/tomtom215/netpulse/internal/models"
	"github.com/tomtom215/netpulse/internal/rollup"
)

// Store is the storage surface the lifecycle consumes. *database.DB
// satisfies it; tests use in-memory fakes.
type Store interface {
	SampleDaysBefore(ctx context.Context, cutoff time.Time) ([]time.Time, error)
	CountSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountArchivedSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteArchivedSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	DailySummaryExists(ctx context.Context, day time.Time) (bool, error)
	DailySummaryDaysBefore(ctx context.Context, cutoff time.Time) ([]time.Time, error)
	DeleteDailySummariesInRange(ctx context.Context, start, end time.Time) (int64, error)
	CountDailySummariesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteDailySummariesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	WeeklySummaryExists(ctx context.Context, weekStart time.Time) (bool, error)
	CountWeeklySummariesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteWeeklySummariesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	RetentionPolicy(ctx context.Context, defaults models.RetentionPolicy) (models.RetentionPolicy, error)
	Compact(ctx context.Context) error
}

// DailyArchiver materializes a daily summary for one day.
type DailyArchiver interface {
	ComputeDailySummary(ctx context.Context, day time.Time) (bool, error)
}

// WeeklyArchiver materializes a weekly summary for the week of a date.
type WeeklyArchiver interface {
	CreateWeeklySummary(ctx context.Context, date time.Time) (bool, error)
}

// Report describes the work one lifecycle run performed, or in dry-run
// mode, would perform.
type Report struct {
	DryRun bool `json:"dry_run"`

	// Tier 1
	DailyBackfilled int   `json:"daily_backfilled"`
	SamplesDeleted  int64 `json:"samples_deleted"`

	// Tier 2
	WeeklyBackfilled int   `json:"weekly_backfilled"`
	DailyArchived    int64 `json:"daily_archived"`

	// Tier 3
	WeeklyExpired int64 `json:"weekly_expired"`
	DailyExpired  int64 `json:"daily_expired"`

	Compacted bool `json:"compacted"`
}

// Manager runs the retention lifecycle. Tiers execute sequentially and
// independently: a failed tier is reported but does not stop the ones
// after it.
type Manager struct {
	store    Store
	daily    DailyArchiver
	weekly   WeeklyArchiver
	defaults models.RetentionPolicy

	// now is swappable for tests.
	now func() time.Time
}

// NewManager builds a lifecycle manager. The defaults policy applies
// where the stored configuration has no override.
func NewManager(store Store, daily DailyArchiver, weekly WeeklyArchiver, defaults models.RetentionPolicy) *Manager {
	return &Manager{
		store:    store,
		daily:    daily,
		weekly:   weekly,
		defaults: defaults,
		now:      time.Now,
	}
}

// RunLifecycle executes all three tiers and compacts storage. Safe to
// re-run at any time. In dry-run mode nothing is written or deleted;
// the report carries the counts of what a real run would do, and
// compaction is skipped because it mutates the file.
func (m *Manager) RunLifecycle(ctx context.Context, dryRun bool) (*Report, error) {
	start := m.now()
	report := &Report{DryRun: dryRun}

	policy, err := m.store.RetentionPolicy(ctx, m.defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to load retention policy: %w", err)
	}

	today := models.Date(m.now())
	var tierErrs []error

	if err := m.runTier1(ctx, report, policy, today, dryRun); err != nil {
		tierErrs = append(tierErrs, fmt.Errorf("tier 1 (samples): %w", err))
	}
	if err := m.runTier2(ctx, report, policy, today, dryRun); err != nil {
		tierErrs = append(tierErrs, fmt.Errorf("tier 2 (daily summaries): %w", err))
	}
	if err := m.runTier3(ctx, report, policy, today, dryRun); err != nil {
		tierErrs = append(tierErrs, fmt.Errorf("tier 3 (expiry): %w", err))
	}

	if !dryRun {
		if err := m.store.Compact(ctx); err != nil {
			tierErrs = append(tierErrs, fmt.Errorf("compaction: %w", err))
		} else {
			report.Compacted = true
		}
	}

	metrics.LifecycleDuration.Observe(m.now().Sub(start).Seconds())
	outcome := "ok"
	switch {
	case dryRun:
		outcome = "dry_run"
	case len(tierErrs) > 0:
		outcome = "partial"
	}
	metrics.LifecycleRuns.WithLabelValues(outcome).Inc()

	logging.Info().
		Bool("dry_run", dryRun).
		Int("daily_backfilled", report.DailyBackfilled).
		Int64("samples_deleted", report.SamplesDeleted).
		Int("weekly_backfilled", report.WeeklyBackfilled).
		Int64("daily_archived", report.DailyArchived).
		Int64("weekly_expired", report.WeeklyExpired).
		Int64("daily_expired", report.DailyExpired).
		Int("errors", len(tierErrs)).
		Msg("Retention lifecycle finished")

	return report, errors.Join(tierErrs...)
}

// runTier1 archives raw samples into daily summaries, then deletes the
// archived samples older than the raw retention window. Days whose
// backfill fails keep their raw rows: the delete only targets days with
// an existing daily summary.
func (m *Manager) runTier1(ctx context.Context, report *Report, policy models.RetentionPolicy, today time.Time, dryRun bool) error {
	cutoff := today.AddDate(0, 0, -policy.SpeedTestDays)

	if dryRun {
		count, err := m.store.CountSamplesBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		report.SamplesDeleted = count

		days, err := m.store.SampleDaysBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		for _, day := range days {
			exists, err := m.store.DailySummaryExists(ctx, day)
			if err != nil {
				return err
			}
			if !exists {
				report.DailyBackfilled++
			}
		}
		return nil
	}

	days, err := m.store.SampleDaysBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	var backfillErrs []error
	for _, day := range days {
		exists, err := m.store.DailySummaryExists(ctx, day)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		written, err := m.daily.ComputeDailySummary(ctx, day)
		if err != nil {
			// Keep going: this day's raw rows survive the delete below.
			backfillErrs = append(backfillErrs, err)
			logging.Warn().Err(err).
				Str("day", day.Format("2006-01-02")).
				Msg("Daily backfill failed, raw samples retained")
			continue
		}
		if written {
			report.DailyBackfilled++
			metrics.LifecycleRowsArchived.WithLabelValues("daily_summary").Inc()
		}
	}

	deleted, err := m.store.DeleteArchivedSamplesBefore(ctx, cutoff)
	if err != nil {
		backfillErrs = append(backfillErrs, err)
	} else {
		report.SamplesDeleted = deleted
		metrics.LifecycleRowsDeleted.WithLabelValues("speed_tests").Add(float64(deleted))
	}

	return errors.Join(backfillErrs...)
}

// runTier2 archives daily summaries into weekly summaries for weeks at
// or before the lookback cutoff, then deletes each week's daily rows.
// A week's dailies are only deleted once its weekly summary exists.
func (m *Manager) runTier2(ctx context.Context, report *Report, policy models.RetentionPolicy, today time.Time, dryRun bool) error {
	cutoffWeek := rollup.WeekStart(today.AddDate(0, 0, -7*policy.WeeklyLookbackWeeks))

	// Days strictly before the end of the cutoff week belong to weeks at
	// or before the cutoff.
	days, err := m.store.DailySummaryDaysBefore(ctx, cutoffWeek.AddDate(0, 0, 7))
	if err != nil {
		return err
	}

	// Distinct week starts, oldest first. Days arrive ordered.
	var weeks []time.Time
	seen := make(map[time.Time]struct{})
	for _, day := range days {
		ws := rollup.WeekStart(day)
		if _, ok := seen[ws]; !ok {
			seen[ws] = struct{}{}
			weeks = append(weeks, ws)
		}
	}

	if dryRun {
		for _, ws := range weeks {
			exists, err := m.store.WeeklySummaryExists(ctx, ws)
			if err != nil {
				return err
			}
			if !exists {
				report.WeeklyBackfilled++
			}
		}
		count, err := m.store.CountDailySummariesBefore(ctx, cutoffWeek.AddDate(0, 0, 7))
		if err != nil {
			return err
		}
		report.DailyArchived = count
		return nil
	}

	var weekErrs []error
	for _, ws := range weeks {
		exists, err := m.store.WeeklySummaryExists(ctx, ws)
		if err != nil {
			return err
		}
		if !exists {
			written, err := m.weekly.CreateWeeklySummary(ctx, ws)
			if err != nil {
				weekErrs = append(weekErrs, err)
				logging.Warn().Err(err).
					Str("week_start", ws.Format("2006-01-02")).
					Msg("Weekly backfill failed, daily summaries retained")
				continue
			}
			if !written {
				continue
			}
			report.WeeklyBackfilled++
			metrics.LifecycleRowsArchived.WithLabelValues("weekly_summary").Inc()
		}

		deleted, err := m.store.DeleteDailySummariesInRange(ctx, ws, ws.AddDate(0, 0, 6))
		if err != nil {
			weekErrs = append(weekErrs, err)
			continue
		}
		report.DailyArchived += deleted
		metrics.LifecycleRowsDeleted.WithLabelValues("daily_summary").Add(float64(deleted))
	}

	return errors.Join(weekErrs...)
}

// runTier3 expires weekly summaries past the weekly retention bound and
// any daily summaries past the secondary age bound. Keep-forever
// sentinels disable each bound independently.
func (m *Manager) runTier3(ctx context.Context, report *Report, policy models.RetentionPolicy, today time.Time, dryRun bool) error {
	var tierErrs []error

	if !policy.KeepWeekliesForever() {
		cutoff := today.AddDate(0, 0, -7*policy.WeeklyWeeks)
		if dryRun {
			count, err := m.store.CountWeeklySummariesBefore(ctx, cutoff)
			if err != nil {
				tierErrs = append(tierErrs, err)
			} else {
				report.WeeklyExpired = count
			}
		} else {
			deleted, err := m.store.DeleteWeeklySummariesBefore(ctx, cutoff)
			if err != nil {
				tierErrs = append(tierErrs, err)
			} else {
				report.WeeklyExpired = deleted
				metrics.LifecycleRowsDeleted.WithLabelValues("weekly_summary").Add(float64(deleted))
			}
		}
	}

	if !policy.KeepSummariesForever() {
		cutoff := today.AddDate(0, 0, -policy.SummaryDays)
		if dryRun {
			count, err := m.store.CountDailySummariesBefore(ctx, cutoff)
			if err != nil {
				tierErrs = append(tierErrs, err)
			} else {
				report.DailyExpired = count
			}
		} else {
			deleted, err := m.store.DeleteDailySummariesBefore(ctx, cutoff)
			if err != nil {
				tierErrs = append(tierErrs, err)
			} else {
				report.DailyExpired = deleted
				metrics.LifecycleRowsDeleted.WithLabelValues("daily_summary").Add(float64(deleted))
			}
		}
	}

	return errors.Join(tierErrs...)
}
