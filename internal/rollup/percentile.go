// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

// Package rollup aggregates raw samples into daily summaries and daily
// summaries into weekly summaries. Both engines are idempotent: re-running
// one over unchanged inputs overwrites the summary with an identical row.
package rollup

import (
	"math"
	"slices"
)

// Percentile computes the linear-interpolated percentile of values for
// p in [0, 100]. An empty input returns 0.0 rather than an error so
// callers can aggregate sparse days without special-casing. The input
// slice is not modified.
//
// Rank is fractional: r = (p/100) * (n-1). An integer rank returns that
// element; otherwise the result interpolates between the neighboring
// elements by the fractional part.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0.0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// Median is the p50 percentile, equivalent to the conventional median
// for both even- and odd-length inputs.
func Median(values []float64) float64 {
	return Percentile(values, 50)
}

// Mean returns the arithmetic mean, or 0.0 for an empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
