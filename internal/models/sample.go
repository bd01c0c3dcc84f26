// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

// Package models defines the named record types shared across Netpulse:
// raw speed-test samples, the subscribed plan, daily and weekly rollup
// summaries, the retention policy, and storage diagnostics.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Sample is one raw speed/latency/device-count measurement.
// Samples are immutable once written; only the retention lifecycle
// deletes them, and only after their day has been summarized.
type Sample struct {
	ID             uuid.UUID `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	DownloadMbps   float64   `json:"download_mbps"`
	UploadMbps     float64   `json:"upload_mbps"`
	PingMs         float64   `json:"ping_ms"`
	ServerName     string    `json:"server_name,omitempty"`
	ServerLocation string    `json:"server_location,omitempty"`

	// DeviceCount is the best-effort device census annotation.
	// Nil when the census was unavailable for this cycle.
	DeviceCount *int `json:"device_count,omitempty"`
}

// Plan is the subscriber's contracted reference speeds used to judge
// "bad" performance. Plan history is append-only; at most one plan is
// active at any time.
type Plan struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	DownloadMbps float64   `json:"download_mbps"`
	UploadMbps   float64   `json:"upload_mbps"`
	CreatedAt    time.Time `json:"created_at"`
	Active       bool      `json:"active"`
}
