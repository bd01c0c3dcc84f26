// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/netpulse/internal/census"
	"github.com/tomtom215/netpulse/internal/logging"
	"github.com/tomtom215/netpulse/internal/models"
	"github.com/tomtom215/netpulse/internal/probe"
)

var testNoStore bool

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run one speed test now",
	Long: `Runs a single measurement cycle immediately: device census (if
enabled), speed test, sample storage, and today's summary update.`,
	RunE: runTest,
}

func init() {
	testCmd.Flags().BoolVar(&testNoStore, "no-store", false,
		"print the result without recording it")
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	var deviceCount *int
	if cfg.Census.Enabled {
		sweeper := census.NewPingSweeper(cfg.Census.Subnet, cfg.Census.Workers, cfg.Census.PingTimeout)
		if n, err := sweeper.CountActiveDevices(ctx); err != nil {
			logging.Warn().Err(err).Msg("Device census failed")
		} else {
			deviceCount = &n
		}
	}

	fmt.Println("Running speed test...")
	prober := probe.NewSpeedtestProber(cfg.Probe.Timeout)
	result, err := prober.Run(ctx)
	if err != nil {
		return fmt.Errorf("speed test failed: %w", err)
	}

	fmt.Printf("  Server:   %s (%s)\n", result.ServerName, result.ServerLocation)
	fmt.Printf("  Download: %.2f Mbps\n", result.DownloadMbps)
	fmt.Printf("  Upload:   %.2f Mbps\n", result.UploadMbps)
	fmt.Printf("  Ping:     %.1f ms\n", result.PingMs)
	if deviceCount != nil {
		fmt.Printf("  Devices:  %d active\n", *deviceCount)
	}
	fmt.Printf("  Took:     %s\n", result.Duration.Round(100*time.Millisecond))

	if testNoStore {
		return nil
	}

	sample := &models.Sample{
		Timestamp:      result.Timestamp,
		DownloadMbps:   result.DownloadMbps,
		UploadMbps:     result.UploadMbps,
		PingMs:         result.PingMs,
		ServerName:     result.ServerName,
		ServerLocation: result.ServerLocation,
		DeviceCount:    deviceCount,
	}
	if err := db.InsertSample(ctx, sample); err != nil {
		return fmt.Errorf("failed to store sample: %w", err)
	}

	daily, _, _ := newEngines(cfg, db)
	if _, err := daily.UpdateToday(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to update today's summary")
	}

	fmt.Println("Sample recorded.")
	return nil
}
