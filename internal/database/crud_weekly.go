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

// UpsertWeeklySummary writes a weekly summary keyed by week_start with
// full replace-on-conflict semantics, mirroring UpsertDailySummary.
func (db *DB) UpsertWeeklySummary(ctx context.Context, s *models.WeeklySummary) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO weekly_summary (week_start, week_end, days_with_data, total_samples, avg_download, avg_upload, avg_ping, avg_pct_bad, good_days, meh_days, bad_days, no_data_days, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (week_start) DO UPDATE SET
			week_end = EXCLUDED.week_end,
			days_with_data = EXCLUDED.days_with_data,
			total_samples = EXCLUDED.total_samples,
			avg_download = EXCLUDED.avg_download,
			avg_upload = EXCLUDED.avg_upload,
			avg_ping = EXCLUDED.avg_ping,
			avg_pct_bad = EXCLUDED.avg_pct_bad,
			good_days = EXCLUDED.good_days,
			meh_days = EXCLUDED.meh_days,
			bad_days = EXCLUDED.bad_days,
			no_data_days = EXCLUDED.no_data_days,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`,
		sqlDate(s.WeekStart), sqlDate(s.WeekEnd), s.DaysWithData, s.TotalSamples,
		s.AvgDownload, s.AvgUpload, s.AvgPing, s.AvgPctBad,
		s.GoodDays, s.MehDays, s.BadDays, s.NoDataDays, string(s.Status), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert weekly summary for %s: %w", sqlDate(s.WeekStart), err)
	}
	return nil
}

// WeeklySummary returns the summary for one week, or ErrNotFound.
func (db *DB) WeeklySummary(ctx context.Context, weekStart time.Time) (*models.WeeklySummary, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `
		SELECT week_start, week_end, days_with_data, total_samples, avg_download, avg_upload, avg_ping, avg_pct_bad, good_days, meh_days, bad_days, no_data_days, status, created_at, updated_at
		FROM weekly_summary
		WHERE week_start = ?`, sqlDate(weekStart))

	s, err := scanWeeklySummary(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly summary for %s: %w", sqlDate(weekStart), err)
	}
	return s, nil
}

// WeeklySummaryExists reports whether a summary row exists for the week.
func (db *DB) WeeklySummaryExists(ctx context.Context, weekStart time.Time) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM weekly_summary WHERE week_start = ?`, sqlDate(weekStart)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check weekly summary for %s: %w", sqlDate(weekStart), err)
	}
	return count > 0, nil
}

// RecentWeeklySummaries returns the most recent weekly summaries,
// newest week first.
func (db *DB) RecentWeeklySummaries(ctx context.Context, limit int) ([]models.WeeklySummary, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 12
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT week_start, week_end, days_with_data, total_samples, avg_download, avg_upload, avg_ping, avg_pct_bad, good_days, meh_days, bad_days, no_data_days, status, created_at, updated_at
		FROM weekly_summary
		ORDER BY week_start DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent weekly summaries: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var summaries []models.WeeklySummary
	for rows.Next() {
		s, err := scanWeeklySummary(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weekly summary: %w", err)
		}
		summaries = append(summaries, *s)
	}
	return summaries, rows.Err()
}

// CountWeeklySummariesBefore counts weekly summaries with week_start
// strictly before the cutoff (dry-run counterpart of the delete).
func (db *DB) CountWeeklySummariesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM weekly_summary WHERE week_start < ?`, sqlDate(cutoff)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count weekly summaries before %s: %w", sqlDate(cutoff), err)
	}
	return count, nil
}

// DeleteWeeklySummariesBefore deletes weekly summaries with week_start
// strictly before the cutoff. Tier-3 final expiry: this data is gone.
func (db *DB) DeleteWeeklySummariesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM weekly_summary WHERE week_start < ?`, sqlDate(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete weekly summaries before %s: %w", sqlDate(cutoff), err)
	}
	return rowsAffected(res)
}

// scanWeeklySummary scans one weekly_summary row via the given scan func.
func scanWeeklySummary(scan func(dest ...any) error) (*models.WeeklySummary, error) {
	var (
		s      models.WeeklySummary
		status string
	)
	if err := scan(&s.WeekStart, &s.WeekEnd, &s.DaysWithData, &s.TotalSamples,
		&s.AvgDownload, &s.AvgUpload, &s.AvgPing, &s.AvgPctBad,
		&s.GoodDays, &s.MehDays, &s.BadDays, &s.NoDataDays,
		&status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}

	s.WeekStart = models.Date(s.WeekStart)
	s.WeekEnd = models.Date(s.WeekEnd)
	s.Status = models.WeekStatus(status)
	return &s, nil
}
