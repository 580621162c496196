// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/jasim-space/showcase/internal/analytics"
	"github.com/jasim-space/showcase/internal/cache"
	"github.com/jasim-space/showcase/internal/catalog"
	"github.com/jasim-space/showcase/internal/challenge"
	"github.com/jasim-space/showcase/internal/config"
	"github.com/jasim-space/showcase/internal/geoip"
	"github.com/jasim-space/showcase/internal/handler"
	"github.com/jasim-space/showcase/internal/imaging"
	"github.com/jasim-space/showcase/internal/logging"
	"github.com/jasim-space/showcase/internal/middleware"
	"github.com/jasim-space/showcase/internal/scheduler"
	"github.com/jasim-space/showcase/internal/session"
	"github.com/jasim-space/showcase/internal/snapshot"
	"github.com/jasim-space/showcase/internal/store"
	"github.com/jasim-space/showcase/internal/syncer"
	"github.com/jasim-space/showcase/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "showcase - product showcase service\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SHOWCASE_SESSION_SECRET    Session signing key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SHOWCASE_DB_PATH           SQLite database path (default: ./data/showcase.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SHOWCASE_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SHOWCASE_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SHOWCASE_SNAPSHOT_PATH     Product snapshot file (default: ./data/static-products.json)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SHOWCASE_UPLOADS_DIR       Uploaded image directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SHOWCASE_REDIS_URL         Redis URL for the shared cache backend (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SHOWCASE_GEOIP_DB_PATH     GeoLite2-Country.mmdb path for visitor countries (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("showcase %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger so WARN and ERROR records also land in the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if err := store.Seed(ctx, db, cfg.DoSeed); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	queries := store.New(db)

	// Cache backend: memory by default, Redis when configured
	cacheConfig := cache.Config{
		Type:             "memory",
		RedisURL:         cfg.RedisURL,
		Prefix:           cfg.CachePrefix,
		DefaultTTL:       time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:          cfg.CacheMaxSize,
		CleanupInterval:  time.Minute,
		FallbackToMemory: true,
	}
	if cfg.UseRedisCache() {
		cacheConfig.Type = "redis"
	}
	cacheBackend, err := cache.New(cacheConfig)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = cacheBackend.Close() }()
	if cfg.UseRedisCache() {
		slog.Info("cache initialized", "backend", "redis", "url", cfg.RedisURL)
	} else {
		slog.Info("cache initialized", "backend", "memory")
	}
	productCache := cache.NewProductCache(cacheBackend, time.Duration(cfg.CacheTTL)*time.Second)

	// Product snapshot and read/write services
	snap := snapshot.NewFile(cfg.SnapshotPath)
	catalogSvc := catalog.New(queries, productCache, snap)
	syncSvc := syncer.New(queries, snap, productCache, logger)

	debouncer := syncer.NewDebouncer(syncSvc, syncer.DefaultDebounceConfig(), logger)
	defer debouncer.Stop()
	catalogSvc.SetResync(debouncer.Trigger)

	// GeoIP country resolution (optional)
	geo := geoip.NewLookup()
	if cfg.GeoIPEnabled() {
		if err := geo.Init(cfg.GeoIPDBPath); err != nil {
			slog.Warn("geoip disabled", "path", cfg.GeoIPDBPath, "error", err)
		} else {
			slog.Info("geoip initialized", "path", cfg.GeoIPDBPath)
		}
	}
	defer func() { _ = geo.Close() }()

	analyticsSvc := analytics.New(queries, geo)

	// Session manager and login challenge store
	sessions := session.NewManager(cfg.SessionSecret)
	challenges := challenge.NewStore()
	defer challenges.Close()

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	slog.Info("login protection initialized",
		"ip_rate_limit", "0.5 req/s",
		"max_failed_attempts", 5,
		"lockout_duration", "15m",
	)

	// Public endpoint rate limiter (tracking and resync)
	publicRateLimiter := middleware.NewGlobalRateLimiter(10.0, 20)

	// Recurring jobs: snapshot refresh, retention cleanup, GeoIP reload
	sched := scheduler.New(syncSvc, analyticsSvc, queries, geo, scheduler.Config{
		VisitRetentionDays: cfg.VisitRetentionDays,
		EventRetentionDays: cfg.EventRetentionDays,
	}, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Handlers
	productsHandler := handler.NewProductsHandler(catalogSvc, logger)
	authHandler := handler.NewAuthHandler(queries, sessions, challenges, loginProtection, logger)
	syncHandler := handler.NewSyncHandler(syncSvc, logger)
	trackHandler := handler.NewTrackHandler(analyticsSvc, logger)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc, queries, logger)
	mediaHandler := handler.NewMediaHandler(imaging.NewProcessor(cfg.UploadsDir), logger)
	healthHandler := handler.NewHealthHandler(db, cacheBackend, filepath.Dir(cfg.DBPath), versionInfo)

	// Router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.SecurityHeaders(cfg.IsDevelopment()))

	// Health checks (extra detail for authenticated admins)
	r.With(middleware.OptionalSession(sessions)).Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	// Public API
	r.Get("/api/products", productsHandler.List)
	r.With(publicRateLimiter.Middleware()).Post("/api/sync-products", syncHandler.Sync)
	r.With(publicRateLimiter.Middleware()).Post("/api/track-visit", trackHandler.Track)

	// Admin auth (public entry points, heavily throttled)
	r.With(loginProtection.Middleware()).Post("/api/admin/login", authHandler.Login)
	r.With(publicRateLimiter.Middleware()).Get("/api/admin/challenge", authHandler.Challenge)

	// Admin API behind the session gate
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(sessions))
		r.Post("/api/admin/products", productsHandler.Create)
		r.Put("/api/admin/products/{id}", productsHandler.Update)
		r.Delete("/api/admin/products/{id}", productsHandler.Delete)
		r.Post("/api/admin/update-email", authHandler.UpdateEmail)
		r.Post("/api/admin/update-password", authHandler.UpdatePassword)
		r.Get("/api/admin/analytics", analyticsHandler.Summary)
		r.Get("/api/admin/events", analyticsHandler.Events)
		r.Post("/api/admin/media", mediaHandler.Upload)
		r.Get("/api/admin/cache-stats", healthHandler.CacheStats)
	})

	// Uploaded product images, cached for a week
	uploadsHandler := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir)))
	r.Handle("/uploads/*", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=604800")
		uploadsHandler.ServeHTTP(w, req)
	}))

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // allow for image uploads on slow links
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
