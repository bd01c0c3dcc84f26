// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package rollup

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/netpulse/internal/logging"
	"github.com/tomtom215/netpulse/internal/metrics"
	"github.com/tomtom215/netpulse/internal/models"
)

// WeekStart returns the most recent Sunday on or before t, truncated to
// midnight. A Sunday maps to itself.
func WeekStart(t time.Time) time.Time {
	day := models.Date(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// WeeklyEngine rolls a Sunday-to-Saturday week of daily summaries into
// one WeeklySummary.
type WeeklyEngine struct {
	store Store
}

// NewWeeklyEngine builds a weekly engine over the given store.
func NewWeeklyEngine(store Store) *WeeklyEngine {
	return &WeeklyEngine{store: store}
}

// CreateWeeklySummary rolls up the week containing date. Returns false
// without writing when the week holds no daily summaries at all.
// Metric averages are weighted by each day's sample count, so a
// placeholder day dilutes nothing while still counting in the
// day-status tally.
func (e *WeeklyEngine) CreateWeeklySummary(ctx context.Context, date time.Time) (bool, error) {
	weekStart := WeekStart(date)
	weekEnd := weekStart.AddDate(0, 0, 6)

	days, err := e.store.DailySummariesInRange(ctx, weekStart, weekEnd)
	if err != nil {
		metrics.RecordRollup("weekly", false, err)
		return false, fmt.Errorf("failed to load daily summaries for week of %s: %w",
			weekStart.Format("2006-01-02"), err)
	}
	if len(days) == 0 {
		metrics.RecordRollup("weekly", false, nil)
		return false, nil
	}

	summary := summarizeWeek(weekStart, weekEnd, days)
	if err := e.store.UpsertWeeklySummary(ctx, summary); err != nil {
		metrics.RecordRollup("weekly", false, err)
		return false, fmt.Errorf("failed to store weekly summary for %s: %w",
			weekStart.Format("2006-01-02"), err)
	}

	metrics.RecordRollup("weekly", true, nil)
	logging.Info().
		Str("week_start", weekStart.Format("2006-01-02")).
		Int("days_with_data", summary.DaysWithData).
		Int("total_samples", summary.TotalSamples).
		Str("status", string(summary.Status)).
		Msg("Weekly summary written")
	return true, nil
}

// summarizeWeek computes the weekly row from the week's daily rows.
func summarizeWeek(weekStart, weekEnd time.Time, days []models.DailySummary) *models.WeeklySummary {
	summary := &models.WeeklySummary{
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
	}

	var wDownload, wUpload, wPing, wPctBad float64
	for _, d := range days {
		summary.TotalSamples += d.SampleCount
		if d.SampleCount > 0 {
			summary.DaysWithData++
			weight := float64(d.SampleCount)
			wDownload += d.MedianDownload * weight
			wUpload += d.MedianUpload * weight
			wPing += d.P95Ping * weight
			wPctBad += d.PctBad * weight
		}

		switch d.Status {
		case models.DayGood:
			summary.GoodDays++
		case models.DayMeh:
			summary.MehDays++
		case models.DayBad:
			summary.BadDays++
		default:
			summary.NoDataDays++
		}
	}

	if summary.TotalSamples > 0 {
		total := float64(summary.TotalSamples)
		summary.AvgDownload = wDownload / total
		summary.AvgUpload = wUpload / total
		summary.AvgPing = wPing / total
		summary.AvgPctBad = wPctBad / total
	}

	summary.Status = WeeklyStatus(summary.DaysWithData, summary.GoodDays, summary.MehDays)
	return summary
}
