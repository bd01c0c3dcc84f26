// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

// Package metrics provides Prometheus metrics for the probe loop, the
// rollup engines, the retention lifecycle, and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Probe metrics
	SamplesRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netpulse_samples_recorded_total",
			Help: "Total number of speed test samples stored",
		},
	)

	ProbeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netpulse_probe_failures_total",
			Help: "Total number of failed speed test probes",
		},
		[]string{"reason"}, // "speedtest", "breaker_open", "storage"
	)

	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netpulse_probe_duration_seconds",
			Help:    "Duration of a full speed test probe in seconds",
			Buckets: []float64{5, 10, 20, 30, 45, 60, 90, 120},
		},
	)

	LastDownloadMbps = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "netpulse_last_download_mbps",
			Help: "Download throughput of the most recent sample in Mbps",
		},
	)

	LastUploadMbps = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "netpulse_last_upload_mbps",
			Help: "Upload throughput of the most recent sample in Mbps",
		},
	)

	LastPingMs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "netpulse_last_ping_ms",
			Help: "Ping latency of the most recent sample in milliseconds",
		},
	)

	ActiveDevices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "netpulse_active_devices",
			Help: "Device count from the most recent census sweep",
		},
	)

	// Rollup metrics
	RollupRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netpulse_rollup_runs_total",
			Help: "Total number of rollup engine runs",
		},
		[]string{"engine", "outcome"}, // engine: "daily"|"weekly"; outcome: "written"|"skipped"|"error"
	)

	// Lifecycle metrics
	LifecycleRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netpulse_lifecycle_runs_total",
			Help: "Total number of retention lifecycle runs",
		},
		[]string{"outcome"}, // "ok", "partial", "dry_run"
	)

	LifecycleRowsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netpulse_lifecycle_rows_deleted_total",
			Help: "Total rows deleted by the retention lifecycle",
		},
		[]string{"table"}, // "speed_tests", "daily_summary", "weekly_summary"
	)

	LifecycleRowsArchived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netpulse_lifecycle_rows_archived_total",
			Help: "Total summary rows materialized by lifecycle backfill",
		},
		[]string{"table"}, // "daily_summary", "weekly_summary"
	)

	LifecycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netpulse_lifecycle_duration_seconds",
			Help:    "Duration of a full retention lifecycle run in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netpulse_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netpulse_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordProbe records one probe attempt and, on success, the headline
// gauges for the sample that was stored.
func RecordProbe(duration time.Duration, downloadMbps, uploadMbps, pingMs float64, err error) {
	ProbeDuration.Observe(duration.Seconds())
	if err != nil {
		ProbeFailures.WithLabelValues("speedtest").Inc()
		return
	}
	SamplesRecorded.Inc()
	LastDownloadMbps.Set(downloadMbps)
	LastUploadMbps.Set(uploadMbps)
	LastPingMs.Set(pingMs)
}

// RecordRollup records one rollup engine outcome.
func RecordRollup(engine string, written bool, err error) {
	outcome := "skipped"
	switch {
	case err != nil:
		outcome = "error"
	case written:
		outcome = "written"
	}
	RollupRuns.WithLabelValues(engine, outcome).Inc()
}
