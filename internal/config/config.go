// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"SHOWCASE_DB_PATH" envDefault:"./data/showcase.db"`
	SessionSecret string `env:"SHOWCASE_SESSION_SECRET,required"`
	ServerHost    string `env:"SHOWCASE_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"SHOWCASE_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"SHOWCASE_ENV" envDefault:"development"`
	LogLevel      string `env:"SHOWCASE_LOG_LEVEL" envDefault:"info"`
	UploadsDir    string `env:"SHOWCASE_UPLOADS_DIR" envDefault:"./uploads"`

	// Snapshot configuration
	SnapshotPath string `env:"SHOWCASE_SNAPSHOT_PATH" envDefault:"./data/static-products.json"`

	// Cache configuration
	RedisURL     string `env:"SHOWCASE_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"SHOWCASE_CACHE_PREFIX" envDefault:"showcase:"` // Redis key prefix
	CacheTTL     int    `env:"SHOWCASE_CACHE_TTL" envDefault:"86400"`      // Last-known-good cache TTL in seconds
	CacheMaxSize int    `env:"SHOWCASE_CACHE_MAX_SIZE" envDefault:"1000"`  // Max memory cache entries

	// GeoIP configuration
	GeoIPDBPath string `env:"SHOWCASE_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Retention configuration
	VisitRetentionDays int `env:"SHOWCASE_VISIT_RETENTION_DAYS" envDefault:"730"`
	EventRetentionDays int `env:"SHOWCASE_EVENT_RETENTION_DAYS" envDefault:"90"`

	// Seeding configuration
	DoSeed bool `env:"SHOWCASE_DO_SEED" envDefault:"false"` // Enable database seeding
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
// The secret keys session token signatures, so 32 bytes minimum.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("SHOWCASE_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("SHOWCASE_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("SHOWCASE_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
