// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the service's recurring jobs: snapshot
// refresh, data retention cleanup, and GeoIP database reload.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jasim-space/showcase/internal/analytics"
	"github.com/jasim-space/showcase/internal/geoip"
	"github.com/jasim-space/showcase/internal/store"
	"github.com/jasim-space/showcase/internal/syncer"
)

// jobTimeout bounds a single scheduled job run.
const jobTimeout = 5 * time.Minute

// Config holds retention settings for the cleanup job.
type Config struct {
	VisitRetentionDays int
	EventRetentionDays int
}

// Scheduler owns the cron instance and its jobs.
type Scheduler struct {
	cron      *cron.Cron
	syncer    *syncer.Service
	analytics *analytics.Service
	queries   *store.Queries
	geo       *geoip.Lookup
	config    Config
	logger    *slog.Logger
}

// New creates a scheduler. geo may be nil when GeoIP is not configured.
func New(syncSvc *syncer.Service, analyticsSvc *analytics.Service, queries *store.Queries,
	geo *geoip.Lookup, config Config, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		syncer:    syncSvc,
		analytics: analyticsSvc,
		queries:   queries,
		geo:       geo,
		config:    config,
		logger:    logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	// Hourly snapshot refresh, offset from the top of the hour so it
	// does not pile onto other hourly infrastructure.
	if _, err := s.cron.AddFunc("17 * * * *", s.refreshSnapshot); err != nil {
		return err
	}

	// Nightly retention cleanup.
	if _, err := s.cron.AddFunc("0 3 * * *", s.cleanupRetention); err != nil {
		return err
	}

	// Nightly GeoIP reload picks up a refreshed database file without a
	// restart.
	if s.geo != nil && s.geo.IsEnabled() {
		if _, err := s.cron.AddFunc("45 3 * * *", s.reloadGeoIP); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) refreshSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.syncer.Sync(ctx); err != nil {
		s.logger.Error("scheduled snapshot sync failed", "category", "sync", "error", err)
	}
}

func (s *Scheduler) cleanupRetention() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	removed, err := s.analytics.Cleanup(ctx, s.config.VisitRetentionDays)
	if err != nil {
		s.logger.Error("visit retention cleanup failed", "category", "analytics", "error", err)
	} else if removed > 0 {
		s.logger.Info("visit retention cleanup", "removed", removed)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -s.config.EventRetentionDays)
	removed, err = s.queries.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("event retention cleanup failed", "error", err)
	} else if removed > 0 {
		s.logger.Info("event retention cleanup", "removed", removed)
	}
}

func (s *Scheduler) reloadGeoIP() {
	if err := s.geo.Reload(); err != nil {
		s.logger.Warn("geoip reload failed", "error", err)
	}
}
