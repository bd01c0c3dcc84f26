// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/netpulse/internal/api"
	"github.com/tomtom215/netpulse/internal/census"
	"github.com/tomtom215/netpulse/internal/logging"
	"github.com/tomtom215/netpulse/internal/monitor"
	"github.com/tomtom215/netpulse/internal/probe"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the monitor daemon",
	Long: `Runs the measurement loop, the nightly retention lifecycle, and the
HTTP API under one supervision tree until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	daily, _, manager := newEngines(cfg, db)

	prober := probe.NewBreakerProber(
		probe.NewSpeedtestProber(cfg.Probe.Timeout),
		probe.BreakerConfig{
			FailureThreshold: uint32(cfg.Probe.BreakerThreshold),
			Cooldown:         cfg.Probe.BreakerCooldown,
		},
	)

	var counter census.Counter
	if cfg.Census.Enabled {
		counter = census.NewPingSweeper(cfg.Census.Subnet, cfg.Census.Workers, cfg.Census.PingTimeout)
	} else {
		logging.Info().Msg("Device census disabled")
	}

	sup := monitor.NewSupervisor()
	sup.Add(monitor.NewMeasurementService(db, prober, counter, daily, &cfg.Monitor))
	sup.Add(monitor.NewLifecycleService(manager, cfg.Monitor.LifecycleHour))
	if cfg.Server.Enabled {
		sup.Add(api.NewServer(api.NewHandler(db, manager), &cfg.Server))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("database", cfg.Database.Path).
		Int("interval_minutes", cfg.Monitor.IntervalMinutes).
		Bool("census", cfg.Census.Enabled).
		Bool("http", cfg.Server.Enabled).
		Msg("Netpulse starting")

	if err := sup.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("Netpulse stopped")
	return nil
}
