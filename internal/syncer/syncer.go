// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

// Package syncer regenerates the product snapshot file from the live
// store. It runs on demand, on a schedule, and debounced after admin
// writes.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jasim-space/showcase/internal/cache"
	"github.com/jasim-space/showcase/internal/model"
	"github.com/jasim-space/showcase/internal/snapshot"
)

var (
	// ErrRead indicates the live product read failed; the old snapshot
	// is left untouched.
	ErrRead = errors.New("reading products for sync")

	// ErrWrite indicates the snapshot could not be replaced.
	ErrWrite = errors.New("writing snapshot")
)

// ProductLister is the read-only store dependency.
type ProductLister interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
}

// Result describes a completed sync.
type Result struct {
	Count     int
	Timestamp time.Time
}

// Service regenerates the snapshot and refreshes the product cache.
type Service struct {
	store  ProductLister
	snap   *snapshot.File
	cache  *cache.ProductCache
	logger *slog.Logger
	now    func() time.Time
}

// New creates a sync service. The cache may be nil.
func New(store ProductLister, snap *snapshot.File, productCache *cache.ProductCache, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		snap:   snap,
		cache:  productCache,
		logger: logger,
		now:    time.Now,
	}
}

// SetNow overrides the clock, for tests.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// Sync reads the full product list and atomically replaces the
// snapshot with it. The replacement is wholesale, so products deleted
// since the last sync disappear from the snapshot too. A successful
// sync also refreshes the last-known-good cache.
func (s *Service) Sync(ctx context.Context) (Result, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRead, err)
	}

	now := s.now().UTC()
	if err := s.snap.Replace(products, now); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrWrite, err)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, products)
	}

	s.logger.Info("product snapshot synced",
		"count", len(products),
		"path", s.snap.Path())
	return Result{Count: len(products), Timestamp: now}, nil
}

// DebounceConfig holds debouncer timing.
type DebounceConfig struct {
	// Interval is the quiet period after the last trigger before a
	// sync runs.
	Interval time.Duration
	// MaxWait caps how long a burst of triggers can postpone the sync.
	MaxWait time.Duration
	// Timeout bounds each background sync run.
	Timeout time.Duration
}

// DefaultDebounceConfig returns the debounce timing used in production.
func DefaultDebounceConfig() DebounceConfig {
	return DebounceConfig{
		Interval: 2 * time.Second,
		MaxWait:  10 * time.Second,
		Timeout:  30 * time.Second,
	}
}

// Debouncer coalesces rapid write bursts into a single background sync.
// A bulk admin import touching dozens of products should produce one
// snapshot rewrite, not one per row.
type Debouncer struct {
	service *Service
	config  DebounceConfig
	logger  *slog.Logger

	mu        sync.Mutex
	timer     *time.Timer
	firstSeen time.Time
	pending   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDebouncer creates a debouncer around the sync service.
func NewDebouncer(service *Service, config DebounceConfig, logger *slog.Logger) *Debouncer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Debouncer{
		service: service,
		config:  config,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Trigger requests a sync. Triggers within the debounce interval are
// coalesced; MaxWait guarantees a burst cannot postpone the sync
// forever. Safe to call from request handlers, returns immediately.
func (d *Debouncer) Trigger() {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending {
		if now.Sub(d.firstSeen) >= d.config.MaxWait {
			d.fireLocked()
			return
		}
		d.timer.Reset(d.config.Interval)
		return
	}

	d.pending = true
	d.firstSeen = now
	d.timer = time.AfterFunc(d.config.Interval, func() {
		d.mu.Lock()
		d.fireLocked()
		d.mu.Unlock()
	})
}

// fireLocked starts the background sync. Must be called with the lock
// held.
func (d *Debouncer) fireLocked() {
	if !d.pending {
		return
	}
	d.timer.Stop()
	d.pending = false

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(d.ctx, d.config.Timeout)
		defer cancel()
		if _, err := d.service.Sync(ctx); err != nil {
			d.logger.Error("debounced snapshot sync failed", "error", err)
		}
	}()
}

// Flush runs any pending sync immediately. Used during shutdown so a
// write just before exit still lands in the snapshot.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	d.fireLocked()
	d.mu.Unlock()
}

// Stop flushes pending work and waits for in-flight syncs to finish.
func (d *Debouncer) Stop() {
	d.Flush()
	d.wg.Wait()
	d.cancel()
}
