// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/netpulse/internal/config"
	"github.com/tomtom215/netpulse/internal/models"
)

// testDBSemaphore serializes test database lifecycles. Concurrent
// DuckDB CGO connections under CI resource pressure can hang, so only
// one test holds an open connection at a time.
var testDBSemaphore = make(chan struct{}, 1)

// setupTestDB creates an in-memory test database. The semaphore is held
// for the entire test lifecycle and released via t.Cleanup.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	cfg := &config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "1GB",
	}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})

	return db
}

// insertTestSample inserts one sample at the given timestamp.
func insertTestSample(t *testing.T, db *DB, ts time.Time, down, up, ping float64) {
	t.Helper()

	s := &models.Sample{
		Timestamp:    ts,
		DownloadMbps: down,
		UploadMbps:   up,
		PingMs:       ping,
		ServerName:   "Test Server",
	}
	if err := db.InsertSample(context.Background(), s); err != nil {
		t.Fatalf("Failed to insert sample: %v", err)
	}
}

func TestDatabaseLifecycle(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed on fresh database: %v", err)
	}
	if db.Conn() == nil {
		t.Error("Conn returned nil for open database")
	}
}

func TestInsertAndQuerySamples(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	insertTestSample(t, db, day.Add(8*time.Hour), 95.0, 11.0, 12.0)
	insertTestSample(t, db, day.Add(12*time.Hour), 88.0, 10.5, 18.0)
	insertTestSample(t, db, day.Add(20*time.Hour), 42.0, 9.0, 95.0)

	samples, err := db.SamplesForDay(ctx, day)
	if err != nil {
		t.Fatalf("SamplesForDay failed: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("Expected 3 samples for day, got %d", len(samples))
	}
	if !samples[0].Timestamp.Before(samples[1].Timestamp) {
		t.Error("Expected samples ordered oldest first")
	}
	if samples[0].ServerName != "Test Server" {
		t.Errorf("Expected server name round-trip, got %q", samples[0].ServerName)
	}

	recent, err := db.RecentSamples(ctx, 2)
	if err != nil {
		t.Fatalf("RecentSamples failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 recent samples, got %d", len(recent))
	}
	if recent[0].DownloadMbps != 42.0 {
		t.Errorf("Expected newest sample first, got download %.1f", recent[0].DownloadMbps)
	}

	has, err := db.HasSamplesOnDay(ctx, day)
	if err != nil {
		t.Fatalf("HasSamplesOnDay failed: %v", err)
	}
	if !has {
		t.Error("Expected HasSamplesOnDay true for populated day")
	}

	has, err = db.HasSamplesOnDay(ctx, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("HasSamplesOnDay failed: %v", err)
	}
	if has {
		t.Error("Expected HasSamplesOnDay false for empty day")
	}
}

func TestInsertSampleDeviceCount(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	devices := 7
	s := &models.Sample{
		Timestamp:    time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		DownloadMbps: 100.0,
		UploadMbps:   10.0,
		PingMs:       15.0,
		DeviceCount:  &devices,
	}
	if err := db.InsertSample(ctx, s); err != nil {
		t.Fatalf("Failed to insert sample with device count: %v", err)
	}

	samples, err := db.RecentSamples(ctx, 1)
	if err != nil {
		t.Fatalf("RecentSamples failed: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("Expected 1 sample, got %d", len(samples))
	}
	if samples[0].DeviceCount == nil || *samples[0].DeviceCount != 7 {
		t.Errorf("Expected device count 7, got %v", samples[0].DeviceCount)
	}
	if samples[0].ServerName != "" {
		t.Errorf("Expected empty server name for NULL column, got %q", samples[0].ServerName)
	}
}

func TestSampleDaysBefore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i := range 3 {
		day := time.Date(2026, 1, 1+i, 10, 0, 0, 0, time.UTC)
		insertTestSample(t, db, day, 90.0, 10.0, 20.0)
	}

	cutoff := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	days, err := db.SampleDaysBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("SampleDaysBefore failed: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("Expected 2 days before cutoff, got %d", len(days))
	}
	if !days[0].Before(days[1]) {
		t.Error("Expected days ordered oldest first")
	}
}

func TestDeleteSamplesBefore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertTestSample(t, db, time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC), 90, 10, 20)
	insertTestSample(t, db, time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC), 90, 10, 20)
	insertTestSample(t, db, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC), 90, 10, 20)

	cutoff := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)

	count, err := db.CountSamplesBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("CountSamplesBefore failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected count 2 before cutoff, got %d", count)
	}

	deleted, err := db.DeleteSamplesBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("DeleteSamplesBefore failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted, got %d", deleted)
	}

	remaining, err := db.RecentSamples(ctx, 10)
	if err != nil {
		t.Fatalf("RecentSamples failed: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("Expected 1 sample remaining, got %d", len(remaining))
	}
}

func TestDeleteArchivedSamplesBefore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Two old days: one summarized, one not. Only the summarized day's
	// raw samples may be deleted.
	summarized := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	unsummarized := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	insertTestSample(t, db, summarized.Add(10*time.Hour), 90, 10, 20)
	insertTestSample(t, db, summarized.Add(14*time.Hour), 85, 9, 25)
	insertTestSample(t, db, unsummarized.Add(10*time.Hour), 90, 10, 20)

	if err := db.UpsertDailySummary(ctx, &models.DailySummary{
		Day:            summarized,
		SampleCount:    2,
		MedianDownload: 87.5,
		MedianUpload:   9.5,
		P95Ping:        24.75,
		PctBad:         0,
		Status:         models.DayGood,
	}); err != nil {
		t.Fatalf("Failed to upsert daily summary: %v", err)
	}

	cutoff := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	count, err := db.CountArchivedSamplesBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("CountArchivedSamplesBefore failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 archived samples eligible, got %d", count)
	}

	deleted, err := db.DeleteArchivedSamplesBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("DeleteArchivedSamplesBefore failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted, got %d", deleted)
	}

	// The unsummarized day keeps its raw rows.
	has, err := db.HasSamplesOnDay(ctx, unsummarized)
	if err != nil {
		t.Fatalf("HasSamplesOnDay failed: %v", err)
	}
	if !has {
		t.Error("Expected unsummarized day to keep its raw samples")
	}
}

func TestPlanLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	plan, err := db.ActivePlan(ctx)
	if err != nil {
		t.Fatalf("ActivePlan failed: %v", err)
	}
	if plan != nil {
		t.Fatal("Expected no active plan on fresh database")
	}

	first, err := db.SetPlan(ctx, "Fiber 100", 100.0, 10.0)
	if err != nil {
		t.Fatalf("SetPlan failed: %v", err)
	}
	if !first.Active {
		t.Error("Expected new plan to be active")
	}

	second, err := db.SetPlan(ctx, "Fiber 500", 500.0, 50.0)
	if err != nil {
		t.Fatalf("SetPlan (second) failed: %v", err)
	}

	active, err := db.ActivePlan(ctx)
	if err != nil {
		t.Fatalf("ActivePlan failed: %v", err)
	}
	if active == nil {
		t.Fatal("Expected an active plan")
	}
	if active.ID != second.ID {
		t.Errorf("Expected latest plan active, got %s", active.Name)
	}
	if active.DownloadMbps != 500.0 || active.UploadMbps != 50.0 {
		t.Errorf("Plan speeds did not round-trip: %+v", active)
	}

	if err := db.ClearPlan(ctx); err != nil {
		t.Fatalf("ClearPlan failed: %v", err)
	}
	active, err = db.ActivePlan(ctx)
	if err != nil {
		t.Fatalf("ActivePlan after clear failed: %v", err)
	}
	if active != nil {
		t.Error("Expected no active plan after ClearPlan")
	}
}

func TestSetPlanValidation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.SetPlan(ctx, "", 100, 10); err == nil {
		t.Error("Expected error for empty plan name")
	}
	if _, err := db.SetPlan(ctx, "Bad", 0, 10); err == nil {
		t.Error("Expected error for zero download speed")
	}
	if _, err := db.SetPlan(ctx, "Bad", 100, -1); err == nil {
		t.Error("Expected error for negative upload speed")
	}
}

func TestDailySummaryUpsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	s := &models.DailySummary{
		Day:            day,
		SampleCount:    10,
		MedianDownload: 95.0,
		MedianUpload:   11.0,
		P95Ping:        30.0,
		PctBad:         5.0,
		Status:         models.DayGood,
	}
	if err := db.UpsertDailySummary(ctx, s); err != nil {
		t.Fatalf("UpsertDailySummary failed: %v", err)
	}

	got, err := db.DailySummary(ctx, day)
	if err != nil {
		t.Fatalf("DailySummary failed: %v", err)
	}
	if got.SampleCount != 10 || got.Status != models.DayGood {
		t.Errorf("Summary did not round-trip: %+v", got)
	}
	if !got.Day.Equal(day) {
		t.Errorf("Expected day %v, got %v", day, got.Day)
	}

	// Re-upsert overwrites metrics.
	s.SampleCount = 12
	s.Status = models.DayMeh
	if err := db.UpsertDailySummary(ctx, s); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}
	got, err = db.DailySummary(ctx, day)
	if err != nil {
		t.Fatalf("DailySummary after upsert failed: %v", err)
	}
	if got.SampleCount != 12 || got.Status != models.DayMeh {
		t.Errorf("Expected overwritten summary, got %+v", got)
	}

	_, err = db.DailySummary(ctx, day.AddDate(0, 0, 1))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing day, got %v", err)
	}
}

func TestInsertDailySummaryIfAbsent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	real := &models.DailySummary{
		Day:            day,
		SampleCount:    5,
		MedianDownload: 80.0,
		Status:         models.DayGood,
	}
	if err := db.UpsertDailySummary(ctx, real); err != nil {
		t.Fatalf("UpsertDailySummary failed: %v", err)
	}

	placeholder := models.DailySummary{Day: day, Status: models.DayNoData}
	inserted, err := db.InsertDailySummaryIfAbsent(ctx, &placeholder)
	if err != nil {
		t.Fatalf("InsertDailySummaryIfAbsent failed: %v", err)
	}
	if inserted {
		t.Error("Expected placeholder to be skipped for existing day")
	}

	got, err := db.DailySummary(ctx, day)
	if err != nil {
		t.Fatalf("DailySummary failed: %v", err)
	}
	if got.Status != models.DayGood {
		t.Errorf("Real summary was overwritten by placeholder: %+v", got)
	}

	empty := day.AddDate(0, 0, -1)
	placeholder2 := models.DailySummary{Day: empty, Status: models.DayNoData}
	inserted, err = db.InsertDailySummaryIfAbsent(ctx, &placeholder2)
	if err != nil {
		t.Fatalf("InsertDailySummaryIfAbsent failed: %v", err)
	}
	if !inserted {
		t.Error("Expected placeholder insert for empty day")
	}
}

func TestDailySummariesInRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	for i := range 7 {
		s := &models.DailySummary{
			Day:         start.AddDate(0, 0, i),
			SampleCount: i,
			Status:      models.DayGood,
		}
		if err := db.UpsertDailySummary(ctx, s); err != nil {
			t.Fatalf("Failed to upsert summary %d: %v", i, err)
		}
	}

	got, err := db.DailySummariesInRange(ctx, start.AddDate(0, 0, 1), start.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("DailySummariesInRange failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 summaries in range, got %d", len(got))
	}
	if got[0].SampleCount != 1 || got[2].SampleCount != 3 {
		t.Errorf("Range endpoints wrong: first=%d last=%d", got[0].SampleCount, got[2].SampleCount)
	}

	deleted, err := db.DeleteDailySummariesInRange(ctx, start, start.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("DeleteDailySummariesInRange failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 deleted, got %d", deleted)
	}
}

func TestWeeklySummaryRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	weekStart := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC) // Sunday
	s := &models.WeeklySummary{
		WeekStart:    weekStart,
		WeekEnd:      weekStart.AddDate(0, 0, 6),
		DaysWithData: 6,
		TotalSamples: 840,
		AvgDownload:  92.5,
		AvgUpload:    10.8,
		AvgPing:      22.0,
		AvgPctBad:    4.2,
		GoodDays:     5,
		MehDays:      1,
		NoDataDays:   1,
		Status:       models.WeekExcellent,
	}
	if err := db.UpsertWeeklySummary(ctx, s); err != nil {
		t.Fatalf("UpsertWeeklySummary failed: %v", err)
	}

	got, err := db.WeeklySummary(ctx, weekStart)
	if err != nil {
		t.Fatalf("WeeklySummary failed: %v", err)
	}
	if got.Status != models.WeekExcellent || got.TotalSamples != 840 {
		t.Errorf("Weekly summary did not round-trip: %+v", got)
	}
	if !got.WeekEnd.Equal(weekStart.AddDate(0, 0, 6)) {
		t.Errorf("Expected week end %v, got %v", weekStart.AddDate(0, 0, 6), got.WeekEnd)
	}

	exists, err := db.WeeklySummaryExists(ctx, weekStart)
	if err != nil {
		t.Fatalf("WeeklySummaryExists failed: %v", err)
	}
	if !exists {
		t.Error("Expected weekly summary to exist")
	}

	_, err = db.WeeklySummary(ctx, weekStart.AddDate(0, 0, 7))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing week, got %v", err)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	got, err := db.GetConfig(ctx, "missing_key", "fallback")
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if got != "fallback" {
		t.Errorf("Expected fallback for missing key, got %q", got)
	}

	if err := db.SetConfig(ctx, "some_key", "v1"); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if err := db.SetConfig(ctx, "some_key", "v2"); err != nil {
		t.Fatalf("SetConfig upsert failed: %v", err)
	}

	got, err = db.GetConfig(ctx, "some_key", "fallback")
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if got != "v2" {
		t.Errorf("Expected upserted value v2, got %q", got)
	}
}

func TestMonitorInterval(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	interval, err := db.MonitorInterval(ctx, 10)
	if err != nil {
		t.Fatalf("MonitorInterval failed: %v", err)
	}
	if interval != 10*time.Minute {
		t.Errorf("Expected fallback interval 10m, got %v", interval)
	}

	if err := db.SetMonitorInterval(ctx, 30); err != nil {
		t.Fatalf("SetMonitorInterval failed: %v", err)
	}
	interval, err = db.MonitorInterval(ctx, 10)
	if err != nil {
		t.Fatalf("MonitorInterval after set failed: %v", err)
	}
	if interval != 30*time.Minute {
		t.Errorf("Expected stored interval 30m, got %v", interval)
	}

	if err := db.SetMonitorInterval(ctx, 0); err == nil {
		t.Error("Expected error for interval below 1 minute")
	}

	// A corrupted stored value fails loudly instead of falling back.
	if err := db.SetConfig(ctx, KeyMonitorInterval, "not-a-number"); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if _, err := db.MonitorInterval(ctx, 10); err == nil {
		t.Error("Expected error for non-integer stored interval")
	}
}

func TestRetentionPolicyRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	defaults := models.DefaultRetentionPolicy()

	policy, err := db.RetentionPolicy(ctx, defaults)
	if err != nil {
		t.Fatalf("RetentionPolicy failed: %v", err)
	}
	if policy != defaults {
		t.Errorf("Expected defaults on fresh database, got %+v", policy)
	}

	want := models.RetentionPolicy{
		SpeedTestDays:       30,
		SummaryDays:         180,
		WeeklyWeeks:         models.KeepForeverWeeks,
		WeeklyLookbackWeeks: 8,
	}
	if err := db.SetRetentionPolicy(ctx, want); err != nil {
		t.Fatalf("SetRetentionPolicy failed: %v", err)
	}

	policy, err = db.RetentionPolicy(ctx, defaults)
	if err != nil {
		t.Fatalf("RetentionPolicy after set failed: %v", err)
	}
	if policy != want {
		t.Errorf("Expected stored policy %+v, got %+v", want, policy)
	}

	bad := models.RetentionPolicy{SpeedTestDays: 0, SummaryDays: 1, WeeklyWeeks: 1, WeeklyLookbackWeeks: 1}
	if err := db.SetRetentionPolicy(ctx, bad); err == nil {
		t.Error("Expected validation error for zero retention days")
	}
}

func TestStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed on empty database: %v", err)
	}
	if stats.SpeedTests != 0 || stats.OldestSample != nil {
		t.Errorf("Expected empty stats, got %+v", stats)
	}

	insertTestSample(t, db, time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC), 90, 10, 20)
	insertTestSample(t, db, time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC), 90, 10, 20)
	if err := db.UpsertDailySummary(ctx, &models.DailySummary{
		Day: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Status: models.DayGood,
	}); err != nil {
		t.Fatalf("UpsertDailySummary failed: %v", err)
	}

	stats, err = db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.SpeedTests != 2 {
		t.Errorf("Expected 2 samples counted, got %d", stats.SpeedTests)
	}
	if stats.DailySummaries != 1 {
		t.Errorf("Expected 1 daily summary counted, got %d", stats.DailySummaries)
	}
	if stats.OldestSample == nil || stats.NewestSample == nil {
		t.Fatal("Expected sample date range to be populated")
	}
	if !stats.OldestSample.Before(*stats.NewestSample) {
		t.Error("Expected oldest sample before newest")
	}
}

func TestCompact(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertTestSample(t, db, time.Now(), 90, 10, 20)
	if _, err := db.DeleteSamplesBefore(ctx, time.Now().AddDate(0, 0, 1)); err != nil {
		t.Fatalf("DeleteSamplesBefore failed: %v", err)
	}
	if err := db.Compact(ctx); err != nil {
		t.Fatalf("Compact failed: %v", err)
	}
	if err := db.Ping(ctx); err != nil {
		t.Errorf("Ping failed after compact: %v", err)
	}
}
