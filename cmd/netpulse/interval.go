// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var intervalCmd = &cobra.Command{
	Use:   "interval [MINUTES]",
	Short: "Show or set the sampling interval",
	Long: `The interval lives in the database, so a running daemon picks up a
change at its next cycle without a restart.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if len(args) == 0 {
			interval, err := db.MonitorInterval(cmd.Context(), cfg.Monitor.IntervalMinutes)
			if err != nil {
				return fmt.Errorf("failed to read interval: %w", err)
			}
			fmt.Printf("Sampling interval: %s\n", interval)
			return nil
		}

		minutes, err := strconv.Atoi(args[0])
		if err != nil || minutes < 1 {
			return fmt.Errorf("interval must be a whole number of minutes >= 1, got %q", args[0])
		}
		if err := db.SetMonitorInterval(cmd.Context(), minutes); err != nil {
			return fmt.Errorf("failed to set interval: %w", err)
		}
		fmt.Printf("Sampling interval set to %d minutes. A running daemon applies it on its next cycle.\n", minutes)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(intervalCmd)
}
