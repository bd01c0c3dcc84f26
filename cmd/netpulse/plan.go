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

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Manage the subscribed internet plan",
	Long: `The plan's contracted speeds are the reference for classifying samples:
a sample is bad when download or upload falls below 70% of the plan, or
when latency exceeds the ping threshold. Without a plan only the
latency rule applies.`,
}

var planSetCmd = &cobra.Command{
	Use:   "set NAME DOWNLOAD_MBPS UPLOAD_MBPS",
	Short: "Set the active plan",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		down, err := strconv.ParseFloat(args[1], 64)
		if err != nil || down <= 0 {
			return fmt.Errorf("download speed must be a positive number, got %q", args[1])
		}
		up, err := strconv.ParseFloat(args[2], 64)
		if err != nil || up <= 0 {
			return fmt.Errorf("upload speed must be a positive number, got %q", args[2])
		}

		_, db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		plan, err := db.SetPlan(cmd.Context(), args[0], down, up)
		if err != nil {
			return fmt.Errorf("failed to store plan: %w", err)
		}
		fmt.Println("Active plan:", planLabel(plan))
		return nil
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active plan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		plan, err := db.ActivePlan(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load plan: %w", err)
		}
		fmt.Println("Active plan:", planLabel(plan))
		return nil
	},
}

var planClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the active plan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.ClearPlan(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear plan: %w", err)
		}
		fmt.Println("Plan cleared. Samples are now classified by latency only.")
		return nil
	},
}

func init() {
	planCmd.AddCommand(planSetCmd, planShowCmd, planClearCmd)
	rootCmd.AddCommand(planCmd)
}
