// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/netpulse/internal/logging"
)

// Checkpoint flushes the WAL into the main database file.
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("failed to checkpoint database: %w", err)
	}
	return nil
}

// Compact reclaims space freed by retention deletes. Checkpoint first
// so the vacuum sees the deletions, then vacuum.
func (db *DB) Compact(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if err := db.Checkpoint(ctx); err != nil {
		return err
	}
	if _, err := db.conn.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}

	logging.Debug().Msg("Database compacted")
	return nil
}
