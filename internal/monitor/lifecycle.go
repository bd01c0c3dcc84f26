// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package monitor

import (
	"context"
	"time"

	"github.com/tomtom215/netpulse/internal/logging"
	"github.com/tomtom215/netpulse/internal/retention"
)

// LifecycleService runs the retention lifecycle once per day at a fixed
// local hour. Deterministic scheduling: the run happens at the
// configured hour every day, not on a probabilistic trigger, so an
// operator can predict when deletions occur. Implements suture.Service.
type LifecycleService struct {
	manager *retention.Manager
	hour    int

	// now is swappable for tests.
	now func() time.Time
}

// NewLifecycleService schedules lifecycle runs at the given local hour
// (0-23).
func NewLifecycleService(manager *retention.Manager, hour int) *LifecycleService {
	if hour < 0 || hour > 23 {
		hour = 3
	}
	return &LifecycleService{
		manager: manager,
		hour:    hour,
		now:     time.Now,
	}
}

// nextRun returns the next occurrence of the scheduled hour after now.
func (s *LifecycleService) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Serve sleeps until the scheduled hour, runs the lifecycle, and
// repeats until the context is canceled.
func (s *LifecycleService) Serve(ctx context.Context) error {
	logging.Info().Int("hour", s.hour).Msg("Lifecycle scheduler started")

	for {
		next := s.nextRun(s.now())
		wait := next.Sub(s.now())
		logging.Debug().Time("next_run", next).Msg("Lifecycle run scheduled")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logging.Info().Msg("Lifecycle scheduler stopped")
			return ctx.Err()
		case <-timer.C:
		}

		report, err := s.manager.RunLifecycle(ctx, false)
		if err != nil {
			logging.Error().Err(err).Msg("Scheduled lifecycle run finished with errors")
			continue
		}
		logging.Info().
			Int("daily_backfilled", report.DailyBackfilled).
			Int64("samples_deleted", report.SamplesDeleted).
			Int("weekly_backfilled", report.WeeklyBackfilled).
			Msg("Scheduled lifecycle run complete")
	}
}
