// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/netpulse/internal/models"
)

// sqlDate formats a day key for DATE column comparisons. Binding the
// formatted string instead of a time.Time keeps the comparison free of
// timezone surprises.
func sqlDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// InsertSample stores one measurement. The sample's ID is assigned if
// unset. Samples are never updated afterward.
func (db *DB) InsertSample(ctx context.Context, s *models.Sample) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	var deviceCount any
	if s.DeviceCount != nil {
		deviceCount = *s.DeviceCount
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO speed_tests (id, timestamp, download_mbps, upload_mbps, ping_ms, server_name, server_location, device_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Timestamp, s.DownloadMbps, s.UploadMbps, s.PingMs,
		nullIfEmpty(s.ServerName), nullIfEmpty(s.ServerLocation), deviceCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}
	return nil
}

// nullIfEmpty maps "" to SQL NULL for optional text columns.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// RecentSamples returns the most recent samples, newest first.
func (db *DB) RecentSamples(ctx context.Context, limit int) ([]models.Sample, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 10
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, timestamp, download_mbps, upload_mbps, ping_ms, server_name, server_location, device_count
		FROM speed_tests
		ORDER BY timestamp DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent samples: %w", err)
	}
	defer closeWithLog(rows, "rows")

	return scanSamples(rows)
}

// SamplesForDay returns every sample whose timestamp falls on the given
// calendar day, oldest first.
func (db *DB) SamplesForDay(ctx context.Context, day time.Time) ([]models.Sample, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, timestamp, download_mbps, upload_mbps, ping_ms, server_name, server_location, device_count
		FROM speed_tests
		WHERE CAST(timestamp AS DATE) = ?
		ORDER BY timestamp`, sqlDate(day))
	if err != nil {
		return nil, fmt.Errorf("failed to query samples for %s: %w", sqlDate(day), err)
	}
	defer closeWithLog(rows, "rows")

	return scanSamples(rows)
}

// HasSamplesOnDay reports whether at least one sample exists for the day.
func (db *DB) HasSamplesOnDay(ctx context.Context, day time.Time) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM speed_tests WHERE CAST(timestamp AS DATE) = ?`,
		sqlDate(day)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count samples for %s: %w", sqlDate(day), err)
	}
	return count > 0, nil
}

// SampleDaysBefore returns the distinct calendar days strictly before
// the cutoff day that still hold raw samples, oldest first.
func (db *DB) SampleDaysBefore(ctx context.Context, cutoff time.Time) ([]time.Time, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT DISTINCT CAST(timestamp AS DATE) AS day
		FROM speed_tests
		WHERE CAST(timestamp AS DATE) < ?
		ORDER BY day`, sqlDate(cutoff))
	if err != nil {
		return nil, fmt.Errorf("failed to query sample days before %s: %w", sqlDate(cutoff), err)
	}
	defer closeWithLog(rows, "rows")

	var days []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan sample day: %w", err)
		}
		days = append(days, models.Date(day))
	}
	return days, rows.Err()
}

// CountSamplesBefore counts samples dated strictly before the cutoff
// day, regardless of whether their day has been summarized. Used by the
// plain cleanup dry run.
func (db *DB) CountSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM speed_tests WHERE CAST(timestamp AS DATE) < ?`,
		sqlDate(cutoff)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count samples before %s: %w", sqlDate(cutoff), err)
	}
	return count, nil
}

// DeleteSamplesBefore deletes all samples dated strictly before the
// cutoff day, summarized or not. Reserved for the explicit operator
// cleanup command; the lifecycle uses DeleteArchivedSamplesBefore.
func (db *DB) DeleteSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM speed_tests WHERE CAST(timestamp AS DATE) < ?`,
		sqlDate(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete samples before %s: %w", sqlDate(cutoff), err)
	}
	return rowsAffected(res)
}

// CountArchivedSamplesBefore counts samples before the cutoff day whose
// day already has a daily summary (i.e. what DeleteArchivedSamplesBefore
// would remove).
func (db *DB) CountArchivedSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM speed_tests
		WHERE CAST(timestamp AS DATE) < ?
		AND CAST(timestamp AS DATE) IN (SELECT day FROM daily_summary)`,
		sqlDate(cutoff)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count archived samples before %s: %w", sqlDate(cutoff), err)
	}
	return count, nil
}

// DeleteArchivedSamplesBefore deletes samples before the cutoff day,
// but only for days that already have a daily summary. This is the
// delete half of the archive-before-delete invariant: a day whose
// backfill failed keeps its raw rows.
func (db *DB) DeleteArchivedSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `
		DELETE FROM speed_tests
		WHERE CAST(timestamp AS DATE) < ?
		AND CAST(timestamp AS DATE) IN (SELECT day FROM daily_summary)`,
		sqlDate(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete archived samples before %s: %w", sqlDate(cutoff), err)
	}
	return rowsAffected(res)
}

// rowsAffected unwraps sql.Result.RowsAffected with a wrapped error.
func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}

// scanSamples drains a speed_tests result set.
func scanSamples(rows *sql.Rows) ([]models.Sample, error) {
	var samples []models.Sample
	for rows.Next() {
		var (
			s              models.Sample
			serverName     sql.NullString
			serverLocation sql.NullString
			deviceCount    sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.Timestamp, &s.DownloadMbps, &s.UploadMbps, &s.PingMs,
			&serverName, &serverLocation, &deviceCount); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}

		s.ServerName = serverName.String
		s.ServerLocation = serverLocation.String
		if deviceCount.Valid {
			n := int(deviceCount.Int64)
			s.DeviceCount = &n
		}

		samples = append(samples, s)
	}
	return samples, rows.Err()
}
