// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package rollup

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/netpulse/internal/models"
)

func TestComputeDailySummary(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	store.addSample(day.Add(8*time.Hour), 90, 9, 10, nil)
	store.addSample(day.Add(12*time.Hour), 95, 10, 20, nil)
	store.addSample(day.Add(18*time.Hour), 100, 11, 90, nil)

	engine := NewDailyEngine(store, 50)
	written, err := engine.ComputeDailySummary(context.Background(), day)
	if err != nil {
		t.Fatalf("ComputeDailySummary failed: %v", err)
	}
	if !written {
		t.Fatal("Expected summary to be written")
	}

	got, ok := store.daily[dayKey(day)]
	if !ok {
		t.Fatal("No summary stored")
	}
	if got.SampleCount != 3 {
		t.Errorf("SampleCount = %d, want 3", got.SampleCount)
	}
	if !almostEqual(got.MedianDownload, 95) {
		t.Errorf("MedianDownload = %g, want 95", got.MedianDownload)
	}
	if !almostEqual(got.MedianUpload, 10) {
		t.Errorf("MedianUpload = %g, want 10", got.MedianUpload)
	}
	// p95 over [10, 20, 90]: rank 1.9 interpolates to 20 + 0.9*70 = 83.
	if !almostEqual(got.P95Ping, 83) {
		t.Errorf("P95Ping = %g, want 83", got.P95Ping)
	}
	// One sample of three has ping above 50.
	if !almostEqual(got.PctBad, 100.0/3.0) {
		t.Errorf("PctBad = %g, want 33.33", got.PctBad)
	}
	if got.Status != models.DayBad {
		t.Errorf("Status = %s, want bad", got.Status)
	}
	if got.AvgDeviceCount != nil {
		t.Errorf("Expected nil AvgDeviceCount without census data, got %v", *got.AvgDeviceCount)
	}
}

func TestComputeDailySummaryWithPlan(t *testing.T) {
	store := newFakeStore()
	store.plan = &models.Plan{Name: "Fiber 100", DownloadMbps: 100, UploadMbps: 10, Active: true}

	day := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	// 65 < 70% of 100, so one of two samples is bad: pctBad = 50.
	store.addSample(day.Add(8*time.Hour), 65, 12, 20, nil)
	store.addSample(day.Add(12*time.Hour), 80, 12, 20, nil)

	engine := NewDailyEngine(store, 50)
	written, err := engine.ComputeDailySummary(context.Background(), day)
	if err != nil {
		t.Fatalf("ComputeDailySummary failed: %v", err)
	}
	if !written {
		t.Fatal("Expected summary to be written")
	}

	got := store.daily[dayKey(day)]
	if !almostEqual(got.PctBad, 50) {
		t.Errorf("PctBad = %g, want 50", got.PctBad)
	}
	if got.Status != models.DayBad {
		t.Errorf("Status = %s, want bad", got.Status)
	}
}

func TestComputeDailySummaryDeviceCounts(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	five, nine := 5, 9
	store.addSample(day.Add(8*time.Hour), 90, 10, 10, &five)
	store.addSample(day.Add(12*time.Hour), 90, 10, 10, &nine)
	store.addSample(day.Add(16*time.Hour), 90, 10, 10, nil)

	engine := NewDailyEngine(store, 50)
	if _, err := engine.ComputeDailySummary(context.Background(), day); err != nil {
		t.Fatalf("ComputeDailySummary failed: %v", err)
	}

	got := store.daily[dayKey(day)]
	if got.AvgDeviceCount == nil {
		t.Fatal("Expected AvgDeviceCount to be set")
	}
	// Mean over the two samples that carried a census.
	if !almostEqual(*got.AvgDeviceCount, 7) {
		t.Errorf("AvgDeviceCount = %g, want 7", *got.AvgDeviceCount)
	}
}

func TestComputeDailySummarySoftFailures(t *testing.T) {
	store := newFakeStore()
	engine := NewDailyEngine(store, 50)
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	// Empty day: soft fail, no row, no error.
	written, err := engine.ComputeDailySummary(context.Background(), day)
	if err != nil {
		t.Fatalf("Expected soft failure for empty day, got error: %v", err)
	}
	if written {
		t.Error("Expected no write for empty day")
	}
	if len(store.daily) != 0 {
		t.Error("Expected no summary stored for empty day")
	}

	// Storage errors propagate.
	store.addSample(day.Add(time.Hour), 90, 10, 10, nil)
	store.failSamples = true
	if _, err := engine.ComputeDailySummary(context.Background(), day); err == nil {
		t.Error("Expected error when sample load fails")
	}

	store.failSamples = false
	store.failUpsert = true
	if _, err := engine.ComputeDailySummary(context.Background(), day); err == nil {
		t.Error("Expected error when summary write fails")
	}
}

func TestComputeDailySummaryIdempotent(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	store.addSample(day.Add(8*time.Hour), 90, 9, 10, nil)
	store.addSample(day.Add(12*time.Hour), 95, 10, 20, nil)

	engine := NewDailyEngine(store, 50)
	ctx := context.Background()

	if _, err := engine.ComputeDailySummary(ctx, day); err != nil {
		t.Fatalf("First rollup failed: %v", err)
	}
	first := store.daily[dayKey(day)]

	if _, err := engine.ComputeDailySummary(ctx, day); err != nil {
		t.Fatalf("Second rollup failed: %v", err)
	}
	second := store.daily[dayKey(day)]

	if first != second {
		t.Errorf("Rollup not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestFillPlaceholders(t *testing.T) {
	store := newFakeStore()
	engine := NewDailyEngine(store, 50)
	today := models.Date(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	engine.now = func() time.Time { return today }

	// Day -1: real summary already present.
	withSummary := today.AddDate(0, 0, -1)
	store.daily[dayKey(withSummary)] = models.DailySummary{
		Day: withSummary, SampleCount: 4, Status: models.DayGood,
	}
	// Day -2: raw samples but no summary; belongs to the lifecycle
	// backfill, not the placeholder pass.
	withSamples := today.AddDate(0, 0, -2)
	store.addSample(withSamples.Add(10*time.Hour), 90, 10, 10, nil)
	// Day -3: nothing at all.

	inserted, err := engine.FillPlaceholders(context.Background(), 3)
	if err != nil {
		t.Fatalf("FillPlaceholders failed: %v", err)
	}
	if inserted != 1 {
		t.Errorf("Expected 1 placeholder inserted, got %d", inserted)
	}

	// The real summary was not replaced.
	if got := store.daily[dayKey(withSummary)]; got.Status != models.DayGood || got.SampleCount != 4 {
		t.Errorf("Real summary was modified: %+v", got)
	}
	// The sampled day got nothing.
	if _, ok := store.daily[dayKey(withSamples)]; ok {
		t.Error("Expected no placeholder for a day holding raw samples")
	}
	// The empty day got a no_data placeholder.
	gap := today.AddDate(0, 0, -3)
	got, ok := store.daily[dayKey(gap)]
	if !ok {
		t.Fatal("Expected placeholder for the empty day")
	}
	if got.Status != models.DayNoData || got.SampleCount != 0 {
		t.Errorf("Placeholder = %+v, want no_data with zero samples", got)
	}
	if !got.Placeholder() {
		t.Error("Expected Placeholder() true for inserted row")
	}

	// Re-running inserts nothing new.
	inserted, err = engine.FillPlaceholders(context.Background(), 3)
	if err != nil {
		t.Fatalf("Second FillPlaceholders failed: %v", err)
	}
	if inserted != 0 {
		t.Errorf("Expected 0 placeholders on rerun, got %d", inserted)
	}
}
