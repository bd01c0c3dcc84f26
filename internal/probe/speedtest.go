// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/showwin/speedtest-go/speedtest"

	"github.com/tomtom215/netpulse/internal/logging"
)

// SpeedtestProber measures against the nearest speedtest.net server.
type SpeedtestProber struct {
	client  *speedtest.Speedtest
	timeout time.Duration
}

// NewSpeedtestProber builds a prober. A non-positive timeout defaults
// to two minutes, enough for a full download and upload pass on slow
// links.
func NewSpeedtestProber(timeout time.Duration) *SpeedtestProber {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &SpeedtestProber{
		client:  speedtest.New(),
		timeout: timeout,
	}
}

// Run executes ping, download, and upload tests against the best
// available server and returns the measurement.
func (p *SpeedtestProber) Run(ctx context.Context) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()

	serverList, err := p.client.FetchServerListContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch speed test servers: %w", err)
	}
	targets, err := serverList.FindServer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to select speed test server: %w", err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no speed test server available")
	}
	server := targets[0]

	logging.Debug().
		Str("server", server.Name).
		Str("sponsor", server.Sponsor).
		Msg("Running speed test")

	if err := server.PingTestContext(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping test failed: %w", err)
	}
	if err := server.DownloadTestContext(ctx); err != nil {
		return nil, fmt.Errorf("download test failed: %w", err)
	}
	if err := server.UploadTestContext(ctx); err != nil {
		return nil, fmt.Errorf("upload test failed: %w", err)
	}

	result := &Result{
		Timestamp:      start,
		DownloadMbps:   server.DLSpeed.Mbps(),
		UploadMbps:     server.ULSpeed.Mbps(),
		PingMs:         float64(server.Latency.Milliseconds()),
		ServerName:     server.Name,
		ServerLocation: server.Country,
		Duration:       time.Since(start),
	}

	// Free the test's internal buffers for the next run.
	server.Context.Reset()

	logging.Info().
		Float64("download_mbps", result.DownloadMbps).
		Float64("upload_mbps", result.UploadMbps).
		Float64("ping_ms", result.PingMs).
		Dur("took", result.Duration).
		Msg("Speed test complete")

	return result, nil
}
