// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

// Package monitor runs the long-lived measurement and lifecycle loops
// under suture supervision.
package monitor

import (
	"context"
	"time"

	"github.com/tomtom215/netpulse/internal/census"
	"github.com/tomtom215/netpulse/internal/config"
	"github.com/tomtom215/netpulse/internal/database"
	"github.com/tomtom215/netpulse/internal/logging"
	"github.com/tomtom215/netpulse/internal/metrics"
	"github.com/tomtom215/netpulse/internal/models"
	"github.com/tomtom215/netpulse/internal/probe"
	"github.com/tomtom215/netpulse/internal/rollup"
)

// MeasurementService runs one probe cycle per sampling interval:
// census, speed test, sample insert, then today's rollup and the
// placeholder pass. It implements suture.Service.
type MeasurementService struct {
	db      *database.DB
	prober  probe.Prober
	counter census.Counter
	daily   *rollup.DailyEngine
	cfg     *config.MonitorConfig
}

// NewMeasurementService wires the measurement loop. counter may be nil
// when the census is disabled.
func NewMeasurementService(db *database.DB, prober probe.Prober, counter census.Counter, daily *rollup.DailyEngine, cfg *config.MonitorConfig) *MeasurementService {
	return &MeasurementService{
		db:      db,
		prober:  prober,
		counter: counter,
		daily:   daily,
		cfg:     cfg,
	}
}

// Serve runs the measurement loop until the context is canceled. The
// interval is re-read from the store each cycle so `netpulse interval`
// changes apply without a restart.
func (s *MeasurementService) Serve(ctx context.Context) error {
	logging.Info().Msg("Measurement loop started")

	// First cycle runs immediately.
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Measurement loop stopped")
			return ctx.Err()
		case <-timer.C:
		}

		s.runCycle(ctx)

		interval, err := s.db.MonitorInterval(ctx, s.cfg.IntervalMinutes)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to read sampling interval, using configured default")
			interval = time.Duration(s.cfg.IntervalMinutes) * time.Minute
		}
		timer.Reset(interval)
	}
}

// runCycle performs one full measurement. Failures are logged, never
// fatal to the loop.
func (s *MeasurementService) runCycle(ctx context.Context) {
	start := time.Now()

	var deviceCount *int
	if s.counter != nil {
		if n, err := s.counter.CountActiveDevices(ctx); err != nil {
			logging.Warn().Err(err).Msg("Device census failed, sample will carry no device count")
		} else {
			deviceCount = &n
		}
	}

	result, err := s.prober.Run(ctx)
	metricsDuration := time.Since(start)
	if err != nil {
		metrics.RecordProbe(metricsDuration, 0, 0, 0, err)
		logging.Warn().Err(err).Msg("Speed test failed, no sample recorded")
		return
	}
	metrics.RecordProbe(metricsDuration, result.DownloadMbps, result.UploadMbps, result.PingMs, nil)

	sample := &models.Sample{
		Timestamp:      result.Timestamp,
		DownloadMbps:   result.DownloadMbps,
		UploadMbps:     result.UploadMbps,
		PingMs:         result.PingMs,
		ServerName:     result.ServerName,
		ServerLocation: result.ServerLocation,
		DeviceCount:    deviceCount,
	}
	if err := s.db.InsertSample(ctx, sample); err != nil {
		metrics.ProbeFailures.WithLabelValues("storage").Inc()
		logging.Error().Err(err).Msg("Failed to store sample")
		return
	}

	if _, err := s.daily.UpdateToday(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to update today's summary")
	}
	if _, err := s.daily.FillPlaceholders(ctx, s.cfg.PlaceholderDaysBack); err != nil {
		logging.Warn().Err(err).Msg("Placeholder backfill failed")
	}
}
