// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jasim-space/showcase/internal/analytics"
	"github.com/jasim-space/showcase/internal/auth"
	"github.com/jasim-space/showcase/internal/cache"
	"github.com/jasim-space/showcase/internal/catalog"
	"github.com/jasim-space/showcase/internal/challenge"
	"github.com/jasim-space/showcase/internal/imaging"
	"github.com/jasim-space/showcase/internal/middleware"
	"github.com/jasim-space/showcase/internal/session"
	"github.com/jasim-space/showcase/internal/snapshot"
	"github.com/jasim-space/showcase/internal/store"
	"github.com/jasim-space/showcase/internal/syncer"
	"github.com/jasim-space/showcase/internal/testutil"
	"github.com/jasim-space/showcase/internal/version"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testEmail    = "admin@example.com"
	testPassword = "correct-horse-battery"
)

// testEnv wires the handlers onto a router the way main does, backed by
// a real temporary database.
type testEnv struct {
	db         *sql.DB
	queries    *store.Queries
	sessions   *session.Manager
	challenges *challenge.Store
	catalog    *catalog.Service
	snapPath   string
	router     http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.TestDB(t)
	queries := store.New(db)
	logger := testutil.TestLogger()

	backend := cache.NewWithTTL(time.Hour)
	productCache := cache.NewProductCache(backend, time.Hour)
	snapPath := filepath.Join(t.TempDir(), "products.json")
	snap := snapshot.NewFile(snapPath)

	catalogSvc := catalog.New(queries, productCache, snap)
	syncSvc := syncer.New(queries, snap, productCache, logger)
	analyticsSvc := analytics.New(queries, nil)

	sessions := session.NewManager(testSecret)
	challenges := challenge.NewStore()
	t.Cleanup(challenges.Close)

	// Generous limits: these tests exercise handlers, not throttling.
	protection := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit:       1000,
		IPBurst:           1000,
		MaxFailedAttempts: 5,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})

	products := NewProductsHandler(catalogSvc, logger)
	authH := NewAuthHandler(queries, sessions, challenges, protection, logger)
	syncH := NewSyncHandler(syncSvc, logger)
	trackH := NewTrackHandler(analyticsSvc, logger)
	analyticsH := NewAnalyticsHandler(analyticsSvc, queries, logger)
	mediaH := NewMediaHandler(imaging.NewProcessor(t.TempDir()), logger)
	healthH := NewHealthHandler(db, backend, t.TempDir(), version.Info{Version: "test"})

	r := chi.NewRouter()
	r.Get("/api/products", products.List)
	r.Post("/api/sync-products", syncH.Sync)
	r.Post("/api/track-visit", trackH.Track)
	r.With(protection.Middleware()).Post("/api/admin/login", authH.Login)
	r.Get("/api/admin/challenge", authH.Challenge)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(sessions))
		r.Post("/api/admin/products", products.Create)
		r.Put("/api/admin/products/{id}", products.Update)
		r.Delete("/api/admin/products/{id}", products.Delete)
		r.Post("/api/admin/update-email", authH.UpdateEmail)
		r.Post("/api/admin/update-password", authH.UpdatePassword)
		r.Get("/api/admin/analytics", analyticsH.Summary)
		r.Get("/api/admin/events", analyticsH.Events)
		r.Post("/api/admin/media", mediaH.Upload)
		r.Get("/api/admin/cache-stats", healthH.CacheStats)
	})
	r.With(middleware.OptionalSession(sessions)).Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	return &testEnv{
		db:         db,
		queries:    queries,
		sessions:   sessions,
		challenges: challenges,
		catalog:    catalogSvc,
		snapPath:   snapPath,
		router:     r,
	}
}

// seedAdmin inserts the default admin account used by the auth tests.
func (e *testEnv) seedAdmin(t *testing.T) {
	t.Helper()

	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	now := time.Now().UTC()
	_, err = e.queries.CreateAdmin(context.Background(), store.CreateAdminParams{
		Email:        testEmail,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
}

// adminToken issues a session token without going through login.
func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()

	token, _, err := e.sessions.Issue(testEmail, time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

// do sends a JSON request through the router. An empty token leaves the
// session header unset.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(session.HeaderName, token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// decodeBody unmarshals a recorded JSON response.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

// solveChallenge fetches a challenge and computes its answer.
func (e *testEnv) solveChallenge(t *testing.T) (string, int) {
	t.Helper()

	rec := e.do(t, http.MethodGet, "/api/admin/challenge", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("challenge status = %d", rec.Code)
	}

	var c struct {
		ID       string `json:"id"`
		Question string `json:"question"`
	}
	decodeBody(t, rec, &c)

	var a, b int
	if _, err := fmt.Sscanf(c.Question, "What is %d + %d?", &a, &b); err != nil {
		t.Fatalf("unexpected question %q: %v", c.Question, err)
	}
	return c.ID, a + b
}
