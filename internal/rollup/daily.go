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

// Store is the storage surface the rollup engines consume. *database.DB
// satisfies it; tests use in-memory fakes.
type Store interface {
	SamplesForDay(ctx context.Context, day time.Time) ([]models.Sample, error)
	HasSamplesOnDay(ctx context.Context, day time.Time) (bool, error)
	ActivePlan(ctx context.Context) (*models.Plan, error)

	UpsertDailySummary(ctx context.Context, s *models.DailySummary) error
	InsertDailySummaryIfAbsent(ctx context.Context, s *models.DailySummary) (bool, error)
	DailySummaryExists(ctx context.Context, day time.Time) (bool, error)
	DailySummariesInRange(ctx context.Context, start, end time.Time) ([]models.DailySummary, error)
	UpsertWeeklySummary(ctx context.Context, s *models.WeeklySummary) error
}

// DailyEngine rolls one calendar day of raw samples into a DailySummary.
type DailyEngine struct {
	store           Store
	pingThresholdMs float64

	// now is swappable for tests.
	now func() time.Time
}

// NewDailyEngine builds a daily engine. A non-positive threshold falls
// back to DefaultPingThresholdMs.
func NewDailyEngine(store Store, pingThresholdMs float64) *DailyEngine {
	if pingThresholdMs <= 0 {
		pingThresholdMs = DefaultPingThresholdMs
	}
	return &DailyEngine{store: store, pingThresholdMs: pingThresholdMs, now: time.Now}
}

// ComputeDailySummary rolls up one day. Returns false without writing
// when the day has no usable samples; the placeholder pass handles
// genuinely empty days. Storage errors are returned; an absent plan is
// logged and classification falls back to the latency rule alone.
func (e *DailyEngine) ComputeDailySummary(ctx context.Context, day time.Time) (bool, error) {
	day = models.Date(day)

	samples, err := e.store.SamplesForDay(ctx, day)
	if err != nil {
		metrics.RecordRollup("daily", false, err)
		return false, fmt.Errorf("failed to load samples for %s: %w", day.Format("2006-01-02"), err)
	}
	if len(samples) == 0 {
		metrics.RecordRollup("daily", false, nil)
		return false, nil
	}

	plan, err := e.store.ActivePlan(ctx)
	if err != nil {
		metrics.RecordRollup("daily", false, err)
		return false, fmt.Errorf("failed to load active plan: %w", err)
	}
	if plan == nil {
		logging.Debug().
			Str("day", day.Format("2006-01-02")).
			Msg("No active plan, classifying on latency only")
	}

	summary := e.summarize(day, samples, plan)
	if err := e.store.UpsertDailySummary(ctx, summary); err != nil {
		metrics.RecordRollup("daily", false, err)
		return false, fmt.Errorf("failed to store daily summary for %s: %w", day.Format("2006-01-02"), err)
	}

	metrics.RecordRollup("daily", true, nil)
	logging.Info().
		Str("day", day.Format("2006-01-02")).
		Int("samples", summary.SampleCount).
		Float64("pct_bad", summary.PctBad).
		Str("status", string(summary.Status)).
		Msg("Daily summary written")
	return true, nil
}

// UpdateToday recomputes the current day's summary. Called after each
// probe so today's row tracks the live data.
func (e *DailyEngine) UpdateToday(ctx context.Context) (bool, error) {
	return e.ComputeDailySummary(ctx, e.now())
}

// FillPlaceholders inserts no_data rows for each of the last daysBack
// calendar days (excluding today) that have neither a summary nor raw
// samples. Existing summaries are never touched. Returns the number of
// placeholders inserted.
func (e *DailyEngine) FillPlaceholders(ctx context.Context, daysBack int) (int, error) {
	today := models.Date(e.now())
	inserted := 0

	for i := 1; i <= daysBack; i++ {
		day := today.AddDate(0, 0, -i)

		exists, err := e.store.DailySummaryExists(ctx, day)
		if err != nil {
			return inserted, fmt.Errorf("failed to check summary for %s: %w", day.Format("2006-01-02"), err)
		}
		if exists {
			continue
		}

		has, err := e.store.HasSamplesOnDay(ctx, day)
		if err != nil {
			return inserted, fmt.Errorf("failed to check samples for %s: %w", day.Format("2006-01-02"), err)
		}
		if has {
			// Samples without a summary: the lifecycle backfill owns
			// this case, not the placeholder pass.
			continue
		}

		placeholder := &models.DailySummary{Day: day, Status: models.DayNoData}
		ok, err := e.store.InsertDailySummaryIfAbsent(ctx, placeholder)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert placeholder for %s: %w", day.Format("2006-01-02"), err)
		}
		if ok {
			inserted++
			logging.Debug().
				Str("day", day.Format("2006-01-02")).
				Msg("Inserted no_data placeholder")
		}
	}

	return inserted, nil
}

// summarize computes the summary row for one day's samples.
func (e *DailyEngine) summarize(day time.Time, samples []models.Sample, plan *models.Plan) *models.DailySummary {
	downloads := make([]float64, 0, len(samples))
	uploads := make([]float64, 0, len(samples))
	pings := make([]float64, 0, len(samples))
	var devices []float64
	badCount := 0

	for _, s := range samples {
		downloads = append(downloads, s.DownloadMbps)
		uploads = append(uploads, s.UploadMbps)
		pings = append(pings, s.PingMs)
		if s.DeviceCount != nil {
			devices = append(devices, float64(*s.DeviceCount))
		}
		if IsBad(s.DownloadMbps, s.UploadMbps, s.PingMs, plan, e.pingThresholdMs) {
			badCount++
		}
	}

	pctBad := 100 * float64(badCount) / float64(len(samples))

	summary := &models.DailySummary{
		Day:            day,
		SampleCount:    len(samples),
		MedianDownload: Median(downloads),
		MedianUpload:   Median(uploads),
		P95Ping:        Percentile(pings, 95),
		PctBad:         pctBad,
		Status:         DailyStatus(pctBad),
	}
	if len(devices) > 0 {
		avg := Mean(devices)
		summary.AvgDeviceCount = &avg
	}
	return summary
}
