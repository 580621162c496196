// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/jasim-space/showcase/internal/analytics"
	"github.com/jasim-space/showcase/internal/middleware"
)

// TrackHandler records public page visits.
type TrackHandler struct {
	analytics *analytics.Service
	logger    *slog.Logger
}

// NewTrackHandler creates a visit tracking handler.
func NewTrackHandler(analyticsSvc *analytics.Service, logger *slog.Logger) *TrackHandler {
	return &TrackHandler{analytics: analyticsSvc, logger: logger}
}

// Track handles POST /api/track-visit. The client sends only the page
// path; IP and user agent come from the request itself so they cannot
// be spoofed through the body.
func (h *TrackHandler) Track(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PagePath string `json:"pagePath"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	err := h.analytics.Track(r.Context(), analytics.TrackInput{
		PagePath:  in.PagePath,
		IPAddress: middleware.GetClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		// Tracking is best effort; a storage hiccup should not surface
		// as a visitor-facing failure.
		h.logger.Warn("visit tracking failed", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"tracked": err == nil})
}
