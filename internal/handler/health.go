// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"fmt"
	"net/http"
	"runtime"
	"syscall"
	"time"

	"github.com/jasim-space/showcase/internal/cache"
	"github.com/jasim-space/showcase/internal/middleware"
	"github.com/jasim-space/showcase/internal/version"
)

// minFreeDiskBytes is the free-space floor below which the service
// reports degraded health. Snapshot rewrites and image uploads both
// need headroom.
const minFreeDiskBytes = 100 * 1024 * 1024

// HealthHandler serves liveness, readiness, and the detailed health
// report.
type HealthHandler struct {
	db        *sql.DB
	cache     cache.Cacher
	dataDir   string
	buildInfo version.Info
	startTime time.Time
}

// NewHealthHandler creates a health handler. dataDir is the directory
// whose filesystem is checked for free space.
func NewHealthHandler(db *sql.DB, c cache.Cacher, dataDir string, buildInfo version.Info) *HealthHandler {
	return &HealthHandler{
		db:        db,
		cache:     c,
		dataDir:   dataDir,
		buildInfo: buildInfo,
		startTime: time.Now(),
	}
}

type healthCheck struct {
	Status  string `json:"status"`
	Detail  string `json:"detail,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Liveness handles GET /health/live. It only proves the process is
// serving requests.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness handles GET /health/ready. Not ready until the database
// answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if check := h.checkDatabase(); check.Status != "ok" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Health handles GET /health. The public response is just the overall
// status; callers holding an admin session get the full check detail
// and build info.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]healthCheck{
		"database": h.checkDatabase(),
		"disk":     h.checkDiskSpace(),
	}

	status := "ok"
	httpStatus := http.StatusOK
	for _, c := range checks {
		if c.Status != "ok" {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			break
		}
	}

	if _, ok := middleware.GetSession(r); !ok {
		writeJSON(w, httpStatus, map[string]string{"status": status})
		return
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
		"build": map[string]string{
			"version":   h.buildInfo.Version,
			"gitCommit": h.buildInfo.GitCommit,
			"buildTime": h.buildInfo.BuildTime,
		},
		"runtime": map[string]any{
			"goVersion":  runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	})
}

// CacheStats handles GET /api/admin/cache-stats. Only cache backends
// that track statistics report them.
func (h *HealthHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.cache.(cache.StatsProvider)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"available": false})
		return
	}

	stats := provider.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"available": true,
		"stats":     stats,
	})
}

func (h *HealthHandler) checkDatabase() healthCheck {
	start := time.Now()
	if err := h.db.Ping(); err != nil {
		return healthCheck{Status: "error", Detail: err.Error()}
	}
	return healthCheck{Status: "ok", Latency: time.Since(start).Round(time.Microsecond).String()}
}

func (h *HealthHandler) checkDiskSpace() healthCheck {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(h.dataDir, &stat); err != nil {
		return healthCheck{Status: "error", Detail: err.Error()}
	}

	free := stat.Bavail * uint64(stat.Bsize)
	if free < minFreeDiskBytes {
		return healthCheck{
			Status: "low",
			Detail: fmt.Sprintf("only %s free", formatBytes(free)),
		}
	}
	return healthCheck{Status: "ok", Detail: formatBytes(free) + " free"}
}

// formatBytes renders a byte count in human-readable units.
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
