// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package rollup

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/netpulse/internal/models"
)

// fakeStore is an in-memory Store for engine tests, keyed by formatted
// day strings the way the real store keys DATE columns.
type fakeStore struct {
	samples map[string][]models.Sample
	daily   map[string]models.DailySummary
	weekly  map[string]models.WeeklySummary
	plan    *models.Plan

	failSamples bool
	failUpsert  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		samples: make(map[string][]models.Sample),
		daily:   make(map[string]models.DailySummary),
		weekly:  make(map[string]models.WeeklySummary),
	}
}

func dayKey(t time.Time) string {
	return models.Date(t).Format("2006-01-02")
}

func (f *fakeStore) addSample(ts time.Time, down, up, ping float64, devices *int) {
	f.samples[dayKey(ts)] = append(f.samples[dayKey(ts)], models.Sample{
		Timestamp:    ts,
		DownloadMbps: down,
		UploadMbps:   up,
		PingMs:       ping,
		DeviceCount:  devices,
	})
}

func (f *fakeStore) SamplesForDay(_ context.Context, day time.Time) ([]models.Sample, error) {
	if f.failSamples {
		return nil, errors.New("storage unavailable")
	}
	return f.samples[dayKey(day)], nil
}

func (f *fakeStore) HasSamplesOnDay(_ context.Context, day time.Time) (bool, error) {
	return len(f.samples[dayKey(day)]) > 0, nil
}

func (f *fakeStore) ActivePlan(_ context.Context) (*models.Plan, error) {
	return f.plan, nil
}

func (f *fakeStore) UpsertDailySummary(_ context.Context, s *models.DailySummary) error {
	if f.failUpsert {
		return errors.New("storage unavailable")
	}
	f.daily[dayKey(s.Day)] = *s
	return nil
}

func (f *fakeStore) InsertDailySummaryIfAbsent(_ context.Context, s *models.DailySummary) (bool, error) {
	if _, ok := f.daily[dayKey(s.Day)]; ok {
		return false, nil
	}
	f.daily[dayKey(s.Day)] = *s
	return true, nil
}

func (f *fakeStore) DailySummaryExists(_ context.Context, day time.Time) (bool, error) {
	_, ok := f.daily[dayKey(day)]
	return ok, nil
}

func (f *fakeStore) DailySummariesInRange(_ context.Context, start, end time.Time) ([]models.DailySummary, error) {
	var out []models.DailySummary
	for day := models.Date(start); !day.After(models.Date(end)); day = day.AddDate(0, 0, 1) {
		if s, ok := f.daily[dayKey(day)]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertWeeklySummary(_ context.Context, s *models.WeeklySummary) error {
	if f.failUpsert {
		return errors.New("storage unavailable")
	}
	f.weekly[dayKey(s.WeekStart)] = *s
	return nil
}
