// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package models

import "time"

// DayStatus is the qualitative rating of a single day, derived from the
// percentage of bad samples.
type DayStatus string

// Day status values. NoData marks placeholder rows for days the machine
// was off or collected nothing.
const (
	DayGood   DayStatus = "good"
	DayMeh    DayStatus = "meh"
	DayBad    DayStatus = "bad"
	DayNoData DayStatus = "no_data"
)

// ParseDayStatus maps stored text to a DayStatus.
// Unrecognized or empty values default to no_data.
func ParseDayStatus(s string) DayStatus {
	switch DayStatus(s) {
	case DayGood, DayMeh, DayBad:
		return DayStatus(s)
	default:
		return DayNoData
	}
}

// WeekStatus is the qualitative rating of a Sunday-to-Saturday week,
// derived from its day-status tallies.
type WeekStatus string

// Week status values.
const (
	WeekExcellent WeekStatus = "excellent"
	WeekGood      WeekStatus = "good"
	WeekPoor      WeekStatus = "poor"
	WeekBad       WeekStatus = "bad"
)

// DailySummary is the idempotent rollup of one calendar day of samples,
// keyed by Day. Recomputing a day with unchanged samples produces an
// identical row except for UpdatedAt.
type DailySummary struct {
	// Day is the calendar day, truncated to midnight.
	Day            time.Time `json:"day"`
	SampleCount    int       `json:"sample_count"`
	MedianDownload float64   `json:"median_download"`
	MedianUpload   float64   `json:"median_upload"`
	P95Ping        float64   `json:"p95_ping"`
	PctBad         float64   `json:"pct_bad"`

	// AvgDeviceCount is nil when no sample carried a device census.
	AvgDeviceCount *float64  `json:"avg_device_count,omitempty"`
	Status         DayStatus `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Placeholder reports whether this row is a no_data gap marker rather
// than a computed rollup.
func (d *DailySummary) Placeholder() bool {
	return d.SampleCount == 0 && d.Status == DayNoData
}

// WeeklySummary is the idempotent rollup of one Sunday-to-Saturday week
// of daily summaries, keyed by WeekStart (always a Sunday). Metric
// averages are weighted by each day's sample count.
type WeeklySummary struct {
	WeekStart    time.Time `json:"week_start"`
	WeekEnd      time.Time `json:"week_end"`
	DaysWithData int       `json:"days_with_data"`
	TotalSamples int       `json:"total_samples"`
	AvgDownload  float64   `json:"avg_download"`
	AvgUpload    float64   `json:"avg_upload"`
	AvgPing      float64   `json:"avg_ping"`
	AvgPctBad    float64   `json:"avg_pct_bad"`
	GoodDays     int       `json:"good_days"`
	MehDays      int       `json:"meh_days"`
	BadDays      int       `json:"bad_days"`
	NoDataDays   int       `json:"no_data_days"`

	Status    WeekStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Date truncates t to midnight in its own location. All day keys pass
// through here so comparisons and map keys line up.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
