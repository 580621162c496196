// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jasim-space/showcase/internal/analytics"
	"github.com/jasim-space/showcase/internal/model"
	"github.com/jasim-space/showcase/internal/store"
)

// AnalyticsHandler serves the visit summary and event log endpoints.
type AnalyticsHandler struct {
	analytics *analytics.Service
	queries   *store.Queries
	logger    *slog.Logger
}

// NewAnalyticsHandler creates an analytics handler.
func NewAnalyticsHandler(analyticsSvc *analytics.Service, queries *store.Queries, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analyticsSvc, queries: queries, logger: logger}
}

// Summary handles GET /api/admin/analytics?range=. A missing range
// defaults to the weekly view; an unknown one is a 400.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	rng := analytics.RangeWeek
	if raw := r.URL.Query().Get("range"); raw != "" {
		parsed, err := analytics.ParseRange(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid range: use day, week, month, year or alltime")
			return
		}
		rng = parsed
	}

	summary, err := h.analytics.Summarize(r.Context(), rng)
	if err != nil {
		h.logger.Error("analytics summary failed", "range", rng, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load analytics")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

const (
	defaultEventLimit = 50
	maxEventLimit     = 200
)

// Events handles GET /api/admin/events?limit=, returning the most
// recent event log entries.
func (h *AnalyticsHandler) Events(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultEventLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		if n > maxEventLimit {
			n = maxEventLimit
		}
		limit = n
	}

	events, err := h.queries.ListRecentEvents(r.Context(), limit)
	if err != nil {
		h.logger.Error("event log read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load events")
		return
	}
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
