// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

// Package catalog implements the product read and write paths.
//
// Reads degrade gracefully: a healthy, non-empty live read refreshes the
// last-known-good cache; otherwise the snapshot file is tried, then the
// cache. Writes validate server-side, render the description, and kick
// off a best-effort snapshot resync.
package catalog

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/jasim-space/showcase/internal/cache"
	"github.com/jasim-space/showcase/internal/model"
	"github.com/jasim-space/showcase/internal/snapshot"
	"github.com/jasim-space/showcase/internal/store"
)

var (
	// ErrInvalidInput indicates the submitted product failed validation.
	ErrInvalidInput = errors.New("invalid product input")

	// ErrNotFound indicates the product does not exist.
	ErrNotFound = errors.New("product not found")
)

// Store is the persistence interface the catalog needs.
type Store interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (model.Product, error)
	CreateProduct(ctx context.Context, arg store.CreateProductParams) (model.Product, error)
	UpdateProduct(ctx context.Context, arg store.UpdateProductParams) (model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// Service implements the product catalog operations.
type Service struct {
	store     Store
	cache     *cache.ProductCache
	snap      *snapshot.File
	sanitizer *bluemonday.Policy
	markdown  goldmark.Markdown
	resync    func() // fire-and-forget snapshot resync, may be nil
	now       func() time.Time
}

// New creates a catalog service.
func New(st Store, productCache *cache.ProductCache, snap *snapshot.File) *Service {
	return &Service{
		store:     st,
		cache:     productCache,
		snap:      snap,
		sanitizer: bluemonday.UGCPolicy(),
		markdown:  goldmark.New(),
		now:       time.Now,
	}
}

// SetResync installs the resync trigger invoked after successful writes.
func (s *Service) SetResync(fn func()) {
	s.resync = fn
}

// SetNow overrides the clock, for tests.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// ListResult is the outcome of a read through the fallback chain.
type ListResult struct {
	Products  []model.Product
	FromCache bool
	// LiveErr is the live read error, set only when no fallback source
	// had data. Callers use it to distinguish "store down and nothing
	// to serve" from a genuinely empty catalog.
	LiveErr error
}

// List reads the product catalog.
//
// Precedence: live store, then snapshot file, then last-known-good
// cache. A healthy non-empty live read refreshes the cache. An empty
// result from every source with no live error is an empty catalog,
// not a failure.
func (s *Service) List(ctx context.Context) ListResult {
	live, err := s.store.ListProducts(ctx)
	if err == nil && len(live) > 0 {
		_ = s.cache.Set(ctx, live)
		return ListResult{Products: live, FromCache: false}
	}

	if snapProducts, snapErr := s.snap.Load(); snapErr == nil && len(snapProducts) > 0 {
		return ListResult{Products: snapProducts, FromCache: true}
	}

	if cached, ok := s.cache.Get(ctx); ok && len(cached) > 0 {
		return ListResult{Products: cached, FromCache: true}
	}

	return ListResult{Products: []model.Product{}, FromCache: false, LiveErr: err}
}

// Input is a submitted product create or update.
type Input struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	ButtonURL   string `json:"button_url"`
	IsFeatured  bool   `json:"is_featured"`
}

// validate normalizes and checks an input. Client-side checks are
// advisory only; this is the authoritative validation.
func (s *Service) validate(in *Input) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	}

	in.ButtonURL = strings.TrimSpace(in.ButtonURL)
	if in.ButtonURL == "" {
		return fmt.Errorf("%w: button_url must not be empty", ErrInvalidInput)
	}
	u, err := url.Parse(in.ButtonURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: button_url must be an absolute http(s) URL", ErrInvalidInput)
	}

	return nil
}

// renderDescription converts a markdown description to sanitized HTML.
func (s *Service) renderDescription(md string) (string, error) {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("rendering description: %w", err)
	}
	return strings.TrimSpace(s.sanitizer.Sanitize(buf.String())), nil
}

// Create validates and stores a new product. The ID and timestamps are
// server-assigned.
func (s *Service) Create(ctx context.Context, in Input) (model.Product, error) {
	if err := s.validate(&in); err != nil {
		return model.Product{}, err
	}

	description, err := s.renderDescription(in.Description)
	if err != nil {
		return model.Product{}, err
	}

	now := s.now().UTC()
	p, err := s.store.CreateProduct(ctx, store.CreateProductParams{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: description,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		ButtonURL:   in.ButtonURL,
		IsFeatured:  in.IsFeatured,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return model.Product{}, fmt.Errorf("creating product: %w", err)
	}

	s.afterWrite()
	return p, nil
}

// Update validates and stores changes to an existing product.
func (s *Service) Update(ctx context.Context, id string, in Input) (model.Product, error) {
	if err := s.validate(&in); err != nil {
		return model.Product{}, err
	}

	description, err := s.renderDescription(in.Description)
	if err != nil {
		return model.Product{}, err
	}

	p, err := s.store.UpdateProduct(ctx, store.UpdateProductParams{
		ID:          id,
		Title:       in.Title,
		Description: description,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		ButtonURL:   in.ButtonURL,
		IsFeatured:  in.IsFeatured,
		UpdatedAt:   s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Product{}, ErrNotFound
		}
		return model.Product{}, fmt.Errorf("updating product: %w", err)
	}

	s.afterWrite()
	return p, nil
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting product: %w", err)
	}

	s.afterWrite()
	return nil
}

// afterWrite triggers the debounced snapshot resync. Failures there are
// logged by the syncer; the write itself has already succeeded.
func (s *Service) afterWrite() {
	if s.resync != nil {
		s.resync()
	}
}
