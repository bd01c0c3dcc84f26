// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package retention

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/tomtom215/netpulse/internal/models"
)

// fakeStore backs both the lifecycle manager and the rollup engines in
// tests. Day keys use the sortable "2006-01-02" format so string
// comparison doubles as date comparison. writes counts every mutating
// call so dry-run tests can assert the store was untouched.
type fakeStore struct {
	samples map[string][]models.Sample
	daily   map[string]models.DailySummary
	weekly  map[string]models.WeeklySummary
	plan    *models.Plan
	policy  *models.RetentionPolicy

	writes      int
	compactions int

	// failSampleDays makes SamplesForDay error for these day keys,
	// simulating a day whose backfill cannot run.
	failSampleDays map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		samples:        make(map[string][]models.Sample),
		daily:          make(map[string]models.DailySummary),
		weekly:         make(map[string]models.WeeklySummary),
		failSampleDays: make(map[string]bool),
	}
}

func dayKey(t time.Time) string {
	return models.Date(t).Format("2006-01-02")
}

func parseDay(key string) time.Time {
	t, _ := time.Parse("2006-01-02", key)
	return t
}

func (f *fakeStore) addSample(ts time.Time, down, up, ping float64) {
	f.samples[dayKey(ts)] = append(f.samples[dayKey(ts)], models.Sample{
		Timestamp:    ts,
		DownloadMbps: down,
		UploadMbps:   up,
		PingMs:       ping,
	})
}

func (f *fakeStore) addDaily(day time.Time, samples int, status models.DayStatus) {
	f.daily[dayKey(day)] = models.DailySummary{
		Day:            models.Date(day),
		SampleCount:    samples,
		MedianDownload: 90,
		MedianUpload:   10,
		P95Ping:        20,
		Status:         status,
	}
}

func (f *fakeStore) addWeekly(weekStart time.Time) {
	f.weekly[dayKey(weekStart)] = models.WeeklySummary{
		WeekStart: models.Date(weekStart),
		WeekEnd:   models.Date(weekStart).AddDate(0, 0, 6),
		Status:    models.WeekGood,
	}
}

func sortedKeysBefore(m map[string]bool, cutoff string) []string {
	var keys []string
	for k := range m {
		if k < cutoff {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// rollup.Store surface

func (f *fakeStore) SamplesForDay(_ context.Context, day time.Time) ([]models.Sample, error) {
	if f.failSampleDays[dayKey(day)] {
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
	f.writes++
	f.daily[dayKey(s.Day)] = *s
	return nil
}

func (f *fakeStore) InsertDailySummaryIfAbsent(_ context.Context, s *models.DailySummary) (bool, error) {
	if _, ok := f.daily[dayKey(s.Day)]; ok {
		return false, nil
	}
	f.writes++
	f.daily[dayKey(s.Day)] = *s
	return true, nil
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
	f.writes++
	f.weekly[dayKey(s.WeekStart)] = *s
	return nil
}

// retention.Store surface

func (f *fakeStore) SampleDaysBefore(_ context.Context, cutoff time.Time) ([]time.Time, error) {
	present := make(map[string]bool)
	for k, rows := range f.samples {
		if len(rows) > 0 {
			present[k] = true
		}
	}
	var days []time.Time
	for _, k := range sortedKeysBefore(present, dayKey(cutoff)) {
		days = append(days, parseDay(k))
	}
	return days, nil
}

func (f *fakeStore) CountSamplesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for k, rows := range f.samples {
		if k < dayKey(cutoff) {
			n += int64(len(rows))
		}
	}
	return n, nil
}

func (f *fakeStore) DeleteSamplesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for k, rows := range f.samples {
		if k < dayKey(cutoff) {
			f.writes++
			n += int64(len(rows))
			delete(f.samples, k)
		}
	}
	return n, nil
}

func (f *fakeStore) CountArchivedSamplesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for k, rows := range f.samples {
		if k < dayKey(cutoff) {
			if _, ok := f.daily[k]; ok {
				n += int64(len(rows))
			}
		}
	}
	return n, nil
}

func (f *fakeStore) DeleteArchivedSamplesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for k, rows := range f.samples {
		if k < dayKey(cutoff) {
			if _, ok := f.daily[k]; ok {
				f.writes++
				n += int64(len(rows))
				delete(f.samples, k)
			}
		}
	}
	return n, nil
}

func (f *fakeStore) DailySummaryExists(_ context.Context, day time.Time) (bool, error) {
	_, ok := f.daily[dayKey(day)]
	return ok, nil
}

func (f *fakeStore) DailySummaryDaysBefore(_ context.Context, cutoff time.Time) ([]time.Time, error) {
	present := make(map[string]bool)
	for k := range f.daily {
		present[k] = true
	}
	var days []time.Time
	for _, k := range sortedKeysBefore(present, dayKey(cutoff)) {
		days = append(days, parseDay(k))
	}
	return days, nil
}

func (f *fakeStore) DeleteDailySummariesInRange(_ context.Context, start, end time.Time) (int64, error) {
	var n int64
	for k := range f.daily {
		if k >= dayKey(start) && k <= dayKey(end) {
			f.writes++
			n++
			delete(f.daily, k)
		}
	}
	return n, nil
}

func (f *fakeStore) CountDailySummariesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for k := range f.daily {
		if k < dayKey(cutoff) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) DeleteDailySummariesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for k := range f.daily {
		if k < dayKey(cutoff) {
			f.writes++
			n++
			delete(f.daily, k)
		}
	}
	return n, nil
}

func (f *fakeStore) WeeklySummaryExists(_ context.Context, weekStart time.Time) (bool, error) {
	_, ok := f.weekly[dayKey(weekStart)]
	return ok, nil
}

func (f *fakeStore) CountWeeklySummariesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for k := range f.weekly {
		if k < dayKey(cutoff) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) DeleteWeeklySummariesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for k := range f.weekly {
		if k < dayKey(cutoff) {
			f.writes++
			n++
			delete(f.weekly, k)
		}
	}
	return n, nil
}

func (f *fakeStore) RetentionPolicy(_ context.Context, defaults models.RetentionPolicy) (models.RetentionPolicy, error) {
	if f.policy != nil {
		return *f.policy, nil
	}
	return defaults, nil
}

func (f *fakeStore) Compact(_ context.Context) error {
	f.compactions++
	return nil
}
