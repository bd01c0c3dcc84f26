// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

// Command netpulse measures internet connection quality on a schedule,
// rolls samples into daily and weekly summaries, and ages data through
// a three-tier retention lifecycle.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/netpulse/internal/config"
	"github.com/tomtom215/netpulse/internal/database"
	"github.com/tomtom215/netpulse/internal/logging"
	"github.com/tomtom215/netpulse/internal/models"
	"github.com/tomtom215/netpulse/internal/retention"
	"github.com/tomtom215/netpulse/internal/rollup"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "netpulse",
	Short: "Personal internet connection quality monitor",
	Long: `Netpulse periodically measures download/upload throughput, latency,
and active device count, stores the samples in an embedded DuckDB
database, and summarizes them into daily and weekly quality reports
with a three-tier retention lifecycle.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logging.Init(logging.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Caller: cfg.Logging.Caller,
		})
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default: netpulse.yaml, then NETPULSE_CONFIG)")
}

// loadConfig loads the layered configuration for the current command.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// openDB loads configuration and opens the database.
func openDB() (*config.Config, *database.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return cfg, db, nil
}

// newEngines builds the rollup engines and retention manager over db.
func newEngines(cfg *config.Config, db *database.DB) (*rollup.DailyEngine, *rollup.WeeklyEngine, *retention.Manager) {
	daily := rollup.NewDailyEngine(db, cfg.Monitor.PingThresholdMs)
	weekly := rollup.NewWeeklyEngine(db)
	manager := retention.NewManager(db, daily, weekly, cfg.Retention.Policy())
	return daily, weekly, manager
}

// sqlDate formats a day for terminal output.
func sqlDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// planLabel renders the active plan or a fallback.
func planLabel(plan *models.Plan) string {
	if plan == nil {
		return "none (latency-only classification)"
	}
	return fmt.Sprintf("%s (%.0f down / %.0f up Mbps)", plan.Name, plan.DownloadMbps, plan.UploadMbps)
}
