// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package rollup

import "github.com/tomtom215/netpulse/internal/models"

// DefaultPingThresholdMs is the latency above which a sample is bad
// when no threshold is configured.
const DefaultPingThresholdMs = 50.0

// planFraction is the minimum fraction of the subscribed speed a sample
// must reach to count as good.
const planFraction = 0.7

// IsBad classifies one sample against the subscribed plan and the ping
// threshold. Any failing rule makes the sample bad: download under 70%
// of the plan's download speed, upload under 70% of the plan's upload
// speed, or ping above the threshold. With no plan only the ping rule
// applies.
func IsBad(downloadMbps, uploadMbps, pingMs float64, plan *models.Plan, pingThresholdMs float64) bool {
	if plan != nil {
		if downloadMbps < planFraction*plan.DownloadMbps {
			return true
		}
		if uploadMbps < planFraction*plan.UploadMbps {
			return true
		}
	}
	return pingMs > pingThresholdMs
}

// DailyStatus derives a day's qualitative rating from its percentage of
// bad samples. Boundaries: below 10 is good, 10 through 30 inclusive is
// meh, above 30 is bad.
func DailyStatus(pctBad float64) models.DayStatus {
	switch {
	case pctBad < 10:
		return models.DayGood
	case pctBad <= 30:
		return models.DayMeh
	default:
		return models.DayBad
	}
}

// WeeklyStatus derives a week's rating from its day tallies, evaluated
// in order: no data at all is bad; five or more good days is excellent;
// five or more acceptable (good or meh) days is good; three or more
// acceptable days is poor; anything less is bad.
func WeeklyStatus(daysWithData, goodDays, mehDays int) models.WeekStatus {
	okDays := goodDays + mehDays
	switch {
	case daysWithData == 0:
		return models.WeekBad
	case goodDays >= 5:
		return models.WeekExcellent
	case okDays >= 5:
		return models.WeekGood
	case okDays >= 3:
		return models.WeekPoor
	default:
		return models.WeekBad
	}
}
