// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jasim-space/showcase/internal/syncer"
)

// SyncHandler serves the on-demand snapshot resync endpoint.
type SyncHandler struct {
	syncer *syncer.Service
	logger *slog.Logger
}

// NewSyncHandler creates a sync handler.
func NewSyncHandler(syncSvc *syncer.Service, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{syncer: syncSvc, logger: logger}
}

type syncResponse struct {
	Synced    bool   `json:"synced"`
	Count     *int   `json:"count,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Sync handles POST /api/sync-products. Re-reads all products and
// replaces the snapshot wholesale; running it twice in a row is
// harmless. A failed live read maps to 502, a failed snapshot write to
// 500.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	res, err := h.syncer.Sync(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		message := "Failed to write snapshot"
		if errors.Is(err, syncer.ErrRead) {
			status = http.StatusBadGateway
			message = "Failed to read products"
		}
		h.logger.Error("snapshot sync failed", "error", err)
		writeJSON(w, status, syncResponse{Synced: false, Error: message})
		return
	}

	count := res.Count
	writeJSON(w, http.StatusOK, syncResponse{
		Synced:    true,
		Count:     &count,
		Timestamp: res.Timestamp.Format(time.RFC3339),
	})
}
