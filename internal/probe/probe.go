// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

// Package probe measures connection quality against public speed test
// servers. A circuit breaker wraps the prober so a dead uplink does not
// burn a full timeout every sampling interval.
package probe

import (
	"context"
	"time"
)

// Result is one speed test measurement before it becomes a stored
// sample.
type Result struct {
	Timestamp      time.Time     `json:"timestamp"`
	DownloadMbps   float64       `json:"download_mbps"`
	UploadMbps     float64       `json:"upload_mbps"`
	PingMs         float64       `json:"ping_ms"`
	ServerName     string        `json:"server_name"`
	ServerLocation string        `json:"server_location"`
	Duration       time.Duration `json:"-"`
}

// Prober runs one full speed test.
type Prober interface {
	Run(ctx context.Context) (*Result, error)
}
