// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/netpulse/internal/models"
)

// UpsertDailySummary writes a daily summary keyed by day with full
// replace-on-conflict semantics. Re-running a rollup overwrites every
// metric column; created_at survives, updated_at moves.
func (db *DB) UpsertDailySummary(ctx context.Context, s *models.DailySummary) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := time.Now()
	var avgDevices any
	if s.AvgDeviceCount != nil {
		avgDevices = *s.AvgDeviceCount
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO daily_summary (day, sample_count, median_download, median_upload, p95_ping, pct_bad, avg_device_count, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (day) DO UPDATE SET
			sample_count = EXCLUDED.sample_count,
			median_download = EXCLUDED.median_download,
			median_upload = EXCLUDED.median_upload,
			p95_ping = EXCLUDED.p95_ping,
			pct_bad = EXCLUDED.pct_bad,
			avg_device_count = EXCLUDED.avg_device_count,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`,
		sqlDate(s.Day), s.SampleCount, s.MedianDownload, s.MedianUpload, s.P95Ping,
		s.PctBad, avgDevices, string(s.Status), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily summary for %s: %w", sqlDate(s.Day), err)
	}
	return nil
}

// InsertDailySummaryIfAbsent inserts a summary only when no row exists
// for the day. Returns true when a row was inserted. This is the
// placeholder write path: a real summary is never overwritten.
func (db *DB) InsertDailySummaryIfAbsent(ctx context.Context, s *models.DailySummary) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := time.Now()
	var avgDevices any
	if s.AvgDeviceCount != nil {
		avgDevices = *s.AvgDeviceCount
	}

	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO daily_summary (day, sample_count, median_download, median_upload, p95_ping, pct_bad, avg_device_count, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (day) DO NOTHING`,
		sqlDate(s.Day), s.SampleCount, s.MedianDownload, s.MedianUpload, s.P95Ping,
		s.PctBad, avgDevices, string(s.Status), now, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert daily summary for %s: %w", sqlDate(s.Day), err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DailySummary returns the summary for one day, or ErrNotFound.
func (db *DB) DailySummary(ctx context.Context, day time.Time) (*models.DailySummary, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `
		SELECT day, sample_count, median_download, median_upload, p95_ping, pct_bad, avg_device_count, status, created_at, updated_at
		FROM daily_summary
		WHERE day = ?`, sqlDate(day))

	s, err := scanDailySummary(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query daily summary for %s: %w", sqlDate(day), err)
	}
	return s, nil
}

// DailySummaryExists reports whether a summary row exists for the day.
func (db *DB) DailySummaryExists(ctx context.Context, day time.Time) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM daily_summary WHERE day = ?`, sqlDate(day)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check daily summary for %s: %w", sqlDate(day), err)
	}
	return count > 0, nil
}

// DailySummariesInRange returns the summaries with day in
// [start, end], ascending by day.
func (db *DB) DailySummariesInRange(ctx context.Context, start, end time.Time) ([]models.DailySummary, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT day, sample_count, median_download, median_upload, p95_ping, pct_bad, avg_device_count, status, created_at, updated_at
		FROM daily_summary
		WHERE day >= ? AND day <= ?
		ORDER BY day`, sqlDate(start), sqlDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily summaries in [%s, %s]: %w", sqlDate(start), sqlDate(end), err)
	}
	defer closeWithLog(rows, "rows")

	return scanDailySummaries(rows)
}

// RecentDailySummaries returns the most recent summaries, newest first.
func (db *DB) RecentDailySummaries(ctx context.Context, limit int) ([]models.DailySummary, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 14
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT day, sample_count, median_download, median_upload, p95_ping, pct_bad, avg_device_count, status, created_at, updated_at
		FROM daily_summary
		ORDER BY day DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent daily summaries: %w", err)
	}
	defer closeWithLog(rows, "rows")

	return scanDailySummaries(rows)
}

// DailySummaryDaysBefore returns the distinct days of summaries dated
// strictly before the cutoff day, oldest first. The retention manager
// maps these onto Sunday-aligned weeks for Tier-2 archival.
func (db *DB) DailySummaryDaysBefore(ctx context.Context, cutoff time.Time) ([]time.Time, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT day FROM daily_summary WHERE day < ? ORDER BY day`, sqlDate(cutoff))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily summary days before %s: %w", sqlDate(cutoff), err)
	}
	defer closeWithLog(rows, "rows")

	var days []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan daily summary day: %w", err)
		}
		days = append(days, models.Date(day))
	}
	return days, rows.Err()
}

// DeleteDailySummariesInRange deletes summaries with day in
// [start, end] and returns the count removed.
func (db *DB) DeleteDailySummariesInRange(ctx context.Context, start, end time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM daily_summary WHERE day >= ? AND day <= ?`, sqlDate(start), sqlDate(end))
	if err != nil {
		return 0, fmt.Errorf("failed to delete daily summaries in [%s, %s]: %w", sqlDate(start), sqlDate(end), err)
	}
	return rowsAffected(res)
}

// CountDailySummariesBefore counts summaries dated strictly before the
// cutoff day (dry-run counterpart of DeleteDailySummariesBefore).
func (db *DB) CountDailySummariesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM daily_summary WHERE day < ?`, sqlDate(cutoff)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count daily summaries before %s: %w", sqlDate(cutoff), err)
	}
	return count, nil
}

// DeleteDailySummariesBefore deletes summaries dated strictly before
// the cutoff day. This is the Tier-3 secondary age bound.
func (db *DB) DeleteDailySummariesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM daily_summary WHERE day < ?`, sqlDate(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete daily summaries before %s: %w", sqlDate(cutoff), err)
	}
	return rowsAffected(res)
}

// scanDailySummary scans one daily_summary row via the given scan func.
func scanDailySummary(scan func(dest ...any) error) (*models.DailySummary, error) {
	var (
		s          models.DailySummary
		avgDevices sql.NullFloat64
		status     string
	)
	if err := scan(&s.Day, &s.SampleCount, &s.MedianDownload, &s.MedianUpload, &s.P95Ping,
		&s.PctBad, &avgDevices, &status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}

	s.Day = models.Date(s.Day)
	s.Status = models.ParseDayStatus(status)
	if avgDevices.Valid {
		v := avgDevices.Float64
		s.AvgDeviceCount = &v
	}
	return &s, nil
}

// scanDailySummaries drains a daily_summary result set.
func scanDailySummaries(rows *sql.Rows) ([]models.DailySummary, error) {
	var summaries []models.DailySummary
	for rows.Next() {
		s, err := scanDailySummary(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily summary: %w", err)
		}
		summaries = append(summaries, *s)
	}
	return summaries, rows.Err()
}
