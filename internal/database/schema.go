// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package database

import (
	"context"
	"fmt"
)

// Schema notes:
//
// All columns are defined in the initial CREATE TABLE statements.
// speed_tests rows are immutable; daily_summary and weekly_summary rows
// are idempotently upserted by their natural keys (day / week_start),
// so recomputing a period never produces a second row.

// createTables creates the Netpulse schema if it does not exist.
func (db *DB) createTables(ctx context.Context) error {
	queries := []string{
		// Raw measurements, one row per probe cycle.
		`CREATE TABLE IF NOT EXISTS speed_tests (
			id UUID PRIMARY KEY,
			timestamp TIMESTAMP NOT NULL,
			download_mbps DOUBLE NOT NULL,
			upload_mbps DOUBLE NOT NULL,
			ping_ms DOUBLE NOT NULL,
			server_name TEXT,
			server_location TEXT,
			device_count INTEGER
		)`,

		// Append-only plan history; at most one row has is_active=TRUE,
		// enforced by the write path (deactivate-all-then-insert).
		`CREATE TABLE IF NOT EXISTS plan_speeds (
			id UUID PRIMARY KEY,
			plan_name TEXT NOT NULL,
			download_mbps DOUBLE NOT NULL,
			upload_mbps DOUBLE NOT NULL,
			created_at TIMESTAMP NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		// One row per calendar day. A no_data status row with
		// sample_count=0 is a placeholder for a day with no samples.
		`CREATE TABLE IF NOT EXISTS daily_summary (
			day DATE PRIMARY KEY,
			sample_count INTEGER NOT NULL,
			median_download DOUBLE NOT NULL,
			median_upload DOUBLE NOT NULL,
			p95_ping DOUBLE NOT NULL,
			pct_bad DOUBLE NOT NULL,
			avg_device_count DOUBLE,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		// One row per Sunday-aligned week.
		`CREATE TABLE IF NOT EXISTS weekly_summary (
			week_start DATE PRIMARY KEY,
			week_end DATE NOT NULL,
			days_with_data INTEGER NOT NULL,
			total_samples INTEGER NOT NULL,
			avg_download DOUBLE NOT NULL,
			avg_upload DOUBLE NOT NULL,
			avg_ping DOUBLE NOT NULL,
			avg_pct_bad DOUBLE NOT NULL,
			good_days INTEGER NOT NULL,
			meh_days INTEGER NOT NULL,
			bad_days INTEGER NOT NULL,
			no_data_days INTEGER NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		// Generic key-value settings: monitoring interval, retention
		// policy overrides.
		`CREATE TABLE IF NOT EXISTS app_config (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// createIndexes creates secondary indexes. The rollup engines scan
// speed_tests by day and the retention manager range-deletes by
// timestamp, so that column carries the only non-key index.
func (db *DB) createIndexes(ctx context.Context) error {
	queries := []string{
		`CREATE INDEX IF NOT EXISTS idx_speed_tests_timestamp ON speed_tests (timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_plan_speeds_active ON plan_speeds (is_active)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}

	return nil
}
