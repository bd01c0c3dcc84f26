// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/netpulse/internal/config"
	"github.com/tomtom215/netpulse/internal/database"
	"github.com/tomtom215/netpulse/internal/retention"
)

var (
	cleanupStats        bool
	cleanupAuto         bool
	cleanupDryRun       bool
	cleanupDays         int
	cleanupArchiveDays  int
	cleanupSetRetention []int
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Inspect and manage stored data",
	Long: `Storage management: show what the database holds, delete or archive
old raw samples, run the full three-tier retention lifecycle, or change
the retention policy. --dry-run previews any destructive action.`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupStats, "stats", false,
		"show storage statistics")
	cleanupCmd.Flags().IntVar(&cleanupDays, "cleanup", 0,
		"delete raw samples older than DAYS without archiving")
	cleanupCmd.Flags().IntVar(&cleanupArchiveDays, "archive", 0,
		"summarize then delete raw samples older than DAYS")
	cleanupCmd.Flags().BoolVar(&cleanupAuto, "auto", false,
		"run the full retention lifecycle using the stored policy")
	cleanupCmd.Flags().IntSliceVar(&cleanupSetRetention, "set-retention", nil,
		"set the policy as SPEED_TEST_DAYS,SUMMARY_DAYS")
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false,
		"report what would happen without changing anything")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	_, _, manager := newEngines(cfg, db)

	switch {
	case len(cleanupSetRetention) > 0:
		if len(cleanupSetRetention) != 2 {
			return fmt.Errorf("--set-retention needs exactly two values (speed test days, summary days), got %d", len(cleanupSetRetention))
		}
		policy, err := db.RetentionPolicy(ctx, cfg.Retention.Policy())
		if err != nil {
			return fmt.Errorf("failed to load retention policy: %w", err)
		}
		policy.SpeedTestDays = cleanupSetRetention[0]
		policy.SummaryDays = cleanupSetRetention[1]
		if err := policy.Validate(); err != nil {
			return err
		}
		if err := db.SetRetentionPolicy(ctx, policy); err != nil {
			return fmt.Errorf("failed to store retention policy: %w", err)
		}
		fmt.Printf("Retention policy updated: raw samples %d days, daily summaries %d days.\n",
			policy.SpeedTestDays, policy.SummaryDays)
		return nil

	case cleanupAuto:
		report, err := manager.RunLifecycle(ctx, cleanupDryRun)
		if report != nil {
			printReport(report)
		}
		return err

	case cleanupArchiveDays > 0:
		deleted, backfilled, err := manager.ArchiveSamples(ctx, cleanupArchiveDays, cleanupDryRun)
		if err != nil {
			return err
		}
		if cleanupDryRun {
			fmt.Printf("Would summarize %d days and delete %d archived samples older than %d days.\n",
				backfilled, deleted, cleanupArchiveDays)
		} else {
			fmt.Printf("Summarized %d days, deleted %d archived samples older than %d days.\n",
				backfilled, deleted, cleanupArchiveDays)
		}
		return nil

	case cleanupDays > 0:
		deleted, err := manager.CleanupSamples(ctx, cleanupDays, cleanupDryRun)
		if err != nil {
			return err
		}
		if cleanupDryRun {
			fmt.Printf("Would delete %d samples older than %d days.\n", deleted, cleanupDays)
		} else {
			fmt.Printf("Deleted %d samples older than %d days.\n", deleted, cleanupDays)
		}
		return nil

	default:
		// --stats, and the fallback when no action flag is given.
		return printStats(cmd, cfg, db)
	}
}

func printStats(cmd *cobra.Command, cfg *config.Config, db *database.DB) error {
	ctx := cmd.Context()

	stats, err := db.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load storage stats: %w", err)
	}

	fmt.Printf("Speed test samples: %d\n", stats.SpeedTests)
	fmt.Printf("Daily summaries:    %d\n", stats.DailySummaries)
	fmt.Printf("Weekly summaries:   %d\n", stats.WeeklySummaries)
	fmt.Printf("Database size:      %.2f MB\n", float64(stats.SizeBytes)/(1024*1024))
	if stats.OldestSample != nil && stats.NewestSample != nil {
		fmt.Printf("Sample range:       %s to %s\n",
			sqlDate(*stats.OldestSample), sqlDate(*stats.NewestSample))
	}

	interval, err := db.MonitorInterval(ctx, cfg.Monitor.IntervalMinutes)
	if err != nil {
		return fmt.Errorf("failed to read interval: %w", err)
	}
	fmt.Printf("Sampling interval:  %s\n", interval)
	if stats.SpeedTests > 0 && stats.SizeBytes > 0 && interval > 0 {
		perDay := float64(24*time.Hour) / float64(interval)
		bytesPerSample := float64(stats.SizeBytes) / float64(stats.SpeedTests)
		fmt.Printf("Estimated growth:   %.2f MB/month\n",
			perDay*30*bytesPerSample/(1024*1024))
	}
	return nil
}

func printReport(r *retention.Report) {
	verb := func(did string, would string) string {
		if r.DryRun {
			return would
		}
		return did
	}

	fmt.Printf("%s %d missed daily summaries\n", verb("Backfilled", "Would backfill"), r.DailyBackfilled)
	fmt.Printf("%s %d archived raw samples\n", verb("Deleted", "Would delete"), r.SamplesDeleted)
	fmt.Printf("%s %d weekly summaries\n", verb("Created", "Would create"), r.WeeklyBackfilled)
	fmt.Printf("%s %d daily summaries into weeks\n", verb("Archived", "Would archive"), r.DailyArchived)
	fmt.Printf("%s %d expired weekly summaries\n", verb("Deleted", "Would delete"), r.WeeklyExpired)
	fmt.Printf("%s %d expired daily summaries\n", verb("Deleted", "Would delete"), r.DailyExpired)
	if r.Compacted {
		fmt.Println("Database compacted.")
	}
}
