// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/tomtom215/netpulse/internal/models"
)

// Stats gathers row counts, the sample date range, and the on-disk
// size for the operator diagnostics surface.
func (db *DB) Stats(ctx context.Context) (*models.StorageStats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	stats := &models.StorageStats{}

	counts := []struct {
		query string
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM speed_tests`, &stats.SpeedTests},
		{`SELECT COUNT(*) FROM daily_summary`, &stats.DailySummaries},
		{`SELECT COUNT(*) FROM weekly_summary`, &stats.WeeklySummaries},
	}
	for _, c := range counts {
		if err := db.conn.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count rows: %s: %w", c.query, err)
		}
	}

	var oldest, newest sql.NullTime
	if err := db.conn.QueryRowContext(ctx,
		`SELECT MIN(timestamp), MAX(timestamp) FROM speed_tests`).Scan(&oldest, &newest); err != nil {
		return nil, fmt.Errorf("failed to query sample date range: %w", err)
	}
	if oldest.Valid {
		stats.OldestSample = &oldest.Time
	}
	if newest.Valid {
		stats.NewestSample = &newest.Time
	}

	// File size is meaningless for in-memory databases (tests).
	if db.cfg.Path != ":memory:" {
		if info, err := os.Stat(db.cfg.Path); err == nil {
			stats.SizeBytes = info.Size()
		}
	}

	return stats, nil
}
