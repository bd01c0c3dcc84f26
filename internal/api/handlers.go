// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/netpulse/internal/logging"
	"github.com/tomtom215/netpulse/internal/models"
)

// respondJSON sends the standard response wrapper.
func respondJSON(w http.ResponseWriter, status int, data any) {
	response := &models.APIResponse{
		Status:   "ok",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	}
	writeResponse(w, status, response)
}

// respondError sends the standard error wrapper.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Err(err).Msg("API error")
	}
	response := &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: code, Message: message},
	}
	writeResponse(w, status, response)
}

func writeResponse(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// queryLimit parses a ?limit= query parameter with a default and cap.
func queryLimit(r *http.Request, fallback, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}

// Health reports liveness, including storage reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "database unreachable", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"state": "healthy"})
}

// RecentSamples returns the newest raw samples.
func (h *Handler) RecentSamples(w http.ResponseWriter, r *http.Request) {
	samples, err := h.store.RecentSamples(r.Context(), queryLimit(r, 10, 500))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "failed to load samples", err)
		return
	}
	respondJSON(w, http.StatusOK, samples)
}

// DailySummaries returns the newest daily summaries.
func (h *Handler) DailySummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.RecentDailySummaries(r.Context(), queryLimit(r, 14, 366))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "failed to load daily summaries", err)
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}

// WeeklySummaries returns the newest weekly summaries.
func (h *Handler) WeeklySummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.RecentWeeklySummaries(r.Context(), queryLimit(r, 12, 104))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "failed to load weekly summaries", err)
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}

// planRequest is the PUT /plan body.
type planRequest struct {
	Name         string  `json:"name" validate:"required,max=100"`
	DownloadMbps float64 `json:"download_mbps" validate:"required,gt=0"`
	UploadMbps   float64 `json:"upload_mbps" validate:"required,gt=0"`
}

// GetPlan returns the active plan, or null when none is configured.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.store.ActivePlan(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "failed to load plan", err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// PutPlan replaces the active plan.
func (h *Handler) PutPlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	plan, err := h.store.SetPlan(r.Context(), req.Name, req.DownloadMbps, req.UploadMbps)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "WRITE_FAILED", "failed to store plan", err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// DeletePlan deactivates the current plan.
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearPlan(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "WRITE_FAILED", "failed to clear plan", err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

// StorageStats returns row counts and database size.
func (h *Handler) StorageStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "failed to load storage stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// RunLifecycle triggers a retention lifecycle run. ?dry_run=true
// reports what would happen without mutating anything.
func (h *Handler) RunLifecycle(w http.ResponseWriter, r *http.Request) {
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))

	report, err := h.lifecycle.RunLifecycle(r.Context(), dryRun)
	if err != nil && report == nil {
		respondError(w, http.StatusInternalServerError, "LIFECYCLE_FAILED", "lifecycle run failed", err)
		return
	}
	if err != nil {
		// Partial result: some tiers failed, the report still stands.
		logging.Warn().Err(err).Msg("Lifecycle run finished with errors")
	}
	respondJSON(w, http.StatusOK, report)
}
