// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

// Package api exposes the read-mostly HTTP surface: recent samples,
// summaries, plan management, storage diagnostics, and an on-demand
// lifecycle trigger.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/netpulse/internal/models"
	"github.com/tomtom215/netpulse/internal/retention"
)

// Store is the storage surface the handlers consume. *database.DB
// satisfies it.
type Store interface {
	Ping(ctx context.Context) error
	RecentSamples(ctx context.Context, limit int) ([]models.Sample, error)
	RecentDailySummaries(ctx context.Context, limit int) ([]models.DailySummary, error)
	RecentWeeklySummaries(ctx context.Context, limit int) ([]models.WeeklySummary, error)
	ActivePlan(ctx context.Context) (*models.Plan, error)
	SetPlan(ctx context.Context, name string, downloadMbps, uploadMbps float64) (*models.Plan, error)
	ClearPlan(ctx context.Context) error
	Stats(ctx context.Context) (*models.StorageStats, error)
}

// LifecycleRunner triggers a retention lifecycle run on demand.
type LifecycleRunner interface {
	RunLifecycle(ctx context.Context, dryRun bool) (*retention.Report, error)
}

// Handler holds the dependencies for all HTTP endpoints.
type Handler struct {
	store     Store
	lifecycle LifecycleRunner
	validate  *validator.Validate
}

// NewHandler wires the HTTP handlers.
func NewHandler(store Store, lifecycle LifecycleRunner) *Handler {
	return &Handler{
		store:     store,
		lifecycle: lifecycle,
		validate:  validator.New(),
	}
}

// Routes builds the router with the full middleware stack.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogging)

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(prometheusMetrics)

		r.Get("/samples/recent", h.RecentSamples)
		r.Get("/summaries/daily", h.DailySummaries)
		r.Get("/summaries/weekly", h.WeeklySummaries)

		r.Get("/plan", h.GetPlan)
		r.Put("/plan", h.PutPlan)
		r.Delete("/plan", h.DeletePlan)

		r.Get("/storage/stats", h.StorageStats)
		r.Post("/lifecycle/run", h.RunLifecycle)
	})

	return r
}
