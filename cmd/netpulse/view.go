// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var viewLimit int

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "View recorded data",
}

var viewResultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show recent speed test samples",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		samples, err := db.RecentSamples(cmd.Context(), viewLimit)
		if err != nil {
			return fmt.Errorf("failed to load samples: %w", err)
		}
		if len(samples) == 0 {
			fmt.Println("No samples recorded yet. Run `netpulse test` to take one.")
			return nil
		}
		plan, err := db.ActivePlan(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load plan: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tDOWN (Mbps)\tUP (Mbps)\tPING (ms)\t% OF PLAN\tDEVICES\tSERVER")
		for _, s := range samples {
			ofPlan := "-"
			if plan != nil {
				ofPlan = fmt.Sprintf("%.0f%%/%.0f%%",
					100*s.DownloadMbps/plan.DownloadMbps,
					100*s.UploadMbps/plan.UploadMbps)
			}
			devices := "-"
			if s.DeviceCount != nil {
				devices = fmt.Sprintf("%d", *s.DeviceCount)
			}
			fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.1f\t%s\t%s\t%s\n",
				s.Timestamp.Local().Format("2006-01-02 15:04"),
				s.DownloadMbps, s.UploadMbps, s.PingMs, ofPlan, devices, s.ServerName)
		}
		return w.Flush()
	},
}

var viewDailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Show recent daily summaries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		summaries, err := db.RecentDailySummaries(cmd.Context(), viewLimit)
		if err != nil {
			return fmt.Errorf("failed to load daily summaries: %w", err)
		}
		if len(summaries) == 0 {
			fmt.Println("No daily summaries yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DAY\tSTATUS\tSAMPLES\tMED DOWN\tMED UP\tP95 PING\t%BAD")
		for _, d := range summaries {
			if d.Placeholder() {
				fmt.Fprintf(w, "%s\t%s\t-\t-\t-\t-\t-\n", sqlDate(d.Day), d.Status)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\t%.1f\t%.1f\n",
				sqlDate(d.Day), d.Status, d.SampleCount,
				d.MedianDownload, d.MedianUpload, d.P95Ping, d.PctBad)
		}
		return w.Flush()
	},
}

var viewWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Show recent weekly summaries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		summaries, err := db.RecentWeeklySummaries(cmd.Context(), viewLimit)
		if err != nil {
			return fmt.Errorf("failed to load weekly summaries: %w", err)
		}
		if len(summaries) == 0 {
			fmt.Println("No weekly summaries yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WEEK OF\tSTATUS\tDAYS\tSAMPLES\tAVG DOWN\tAVG UP\tAVG PING\tG/M/B/N")
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.2f\t%.2f\t%.1f\t%d/%d/%d/%d\n",
				sqlDate(s.WeekStart), s.Status, s.DaysWithData, s.TotalSamples,
				s.AvgDownload, s.AvgUpload, s.AvgPing,
				s.GoodDays, s.MehDays, s.BadDays, s.NoDataDays)
		}
		return w.Flush()
	},
}

func init() {
	viewCmd.PersistentFlags().IntVar(&viewLimit, "limit", 10, "max rows to show")
	viewCmd.AddCommand(viewResultsCmd, viewDailyCmd, viewWeeklyCmd)
	rootCmd.AddCommand(viewCmd)
}
