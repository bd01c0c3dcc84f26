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

	"github.com/google/uuid"

	"github.com/tomtom215/netpulse/internal/models"
)

// SetPlan records a new subscribed plan. Plan history is append-only:
// all previous rows are deactivated and the new row inserted active,
// inside one transaction so there is never a moment with two active
// plans or a torn history.
func (db *DB) SetPlan(ctx context.Context, name string, downloadMbps, uploadMbps float64) (*models.Plan, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if name == "" {
		return nil, fmt.Errorf("plan name must not be empty")
	}
	if downloadMbps <= 0 || uploadMbps <= 0 {
		return nil, fmt.Errorf("plan speeds must be positive, got %g down / %g up", downloadMbps, uploadMbps)
	}

	plan := &models.Plan{
		ID:           uuid.New(),
		Name:         name,
		DownloadMbps: downloadMbps,
		UploadMbps:   uploadMbps,
		CreatedAt:    time.Now(),
		Active:       true,
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin plan transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE plan_speeds SET is_active = FALSE WHERE is_active`); err != nil {
		return nil, fmt.Errorf("failed to deactivate previous plans: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO plan_speeds (id, plan_name, download_mbps, upload_mbps, created_at, is_active)
		VALUES (?, ?, ?, ?, ?, TRUE)`,
		plan.ID, plan.Name, plan.DownloadMbps, plan.UploadMbps, plan.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to insert plan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit plan transaction: %w", err)
	}

	return plan, nil
}

// ActivePlan returns the currently active plan, or (nil, nil) when no
// plan is configured. Absence is a valid state, not an error.
func (db *DB) ActivePlan(ctx context.Context) (*models.Plan, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var plan models.Plan
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, plan_name, download_mbps, upload_mbps, created_at, is_active
		FROM plan_speeds
		WHERE is_active
		ORDER BY created_at DESC
		LIMIT 1`).Scan(&plan.ID, &plan.Name, &plan.DownloadMbps, &plan.UploadMbps, &plan.CreatedAt, &plan.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query active plan: %w", err)
	}
	return &plan, nil
}

// ClearPlan deactivates all plans, returning to the latency-only
// classification state. The history rows remain.
func (db *DB) ClearPlan(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, `UPDATE plan_speeds SET is_active = FALSE WHERE is_active`); err != nil {
		return fmt.Errorf("failed to clear plan: %w", err)
	}
	return nil
}
