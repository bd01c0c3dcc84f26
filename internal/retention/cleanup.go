// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package retention

import (
	"context"
	"fmt"

	"github.com/tomtom215/netpulse/internal/logging"
	"github.com/tomtom215/netpulse/internal/metrics"
	"github.com/tomtom215/netpulse/internal/models"
)

// ArchiveSamples is the operator-invoked Tier-1 pass with an explicit
// age instead of the configured policy: backfill daily summaries for
// sample days older than the given number of days, then delete the
// archived samples. Returns (samples deleted, summaries backfilled).
func (m *Manager) ArchiveSamples(ctx context.Context, olderThanDays int, dryRun bool) (int64, int, error) {
	if olderThanDays < 1 {
		return 0, 0, fmt.Errorf("archive age must be >= 1 day, got %d", olderThanDays)
	}

	today := models.Date(m.now())
	report := &Report{DryRun: dryRun}
	policy := models.RetentionPolicy{SpeedTestDays: olderThanDays}

	err := m.runTier1(ctx, report, policy, today, dryRun)
	return report.SamplesDeleted, report.DailyBackfilled, err
}

// CleanupSamples deletes raw samples older than the given number of
// days without archiving them first. Data for unsummarized days is
// lost; this exists for operators who explicitly want the blunt
// version. Returns the number of rows deleted (or countable in dry-run).
func (m *Manager) CleanupSamples(ctx context.Context, olderThanDays int, dryRun bool) (int64, error) {
	if olderThanDays < 1 {
		return 0, fmt.Errorf("cleanup age must be >= 1 day, got %d", olderThanDays)
	}

	cutoff := models.Date(m.now()).AddDate(0, 0, -olderThanDays)

	if dryRun {
		return m.store.CountSamplesBefore(ctx, cutoff)
	}

	deleted, err := m.store.DeleteSamplesBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	metrics.LifecycleRowsDeleted.WithLabelValues("speed_tests").Add(float64(deleted))

	if err := m.store.Compact(ctx); err != nil {
		logging.Warn().Err(err).Msg("Compaction after cleanup failed")
	}

	logging.Info().
		Int64("deleted", deleted).
		Str("cutoff", cutoff.Format("2006-01-02")).
		Msg("Raw samples cleaned up")
	return deleted, nil
}
