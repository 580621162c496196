// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves visitor IP addresses to countries using a
// MaxMind GeoLite2-Country database. Missing database means lookups
// degrade to empty results, never errors.
package geoip

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

// privateCIDRs contains parsed CIDR blocks for private IP ranges.
var privateCIDRs []*net.IPNet

func init() {
	privateBlocks := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"fc00::/7",  // IPv6 unique local
		"fe80::/10", // IPv6 link-local
	}

	for _, block := range privateBlocks {
		_, cidr, err := net.ParseCIDR(block)
		if err == nil {
			privateCIDRs = append(privateCIDRs, cidr)
		}
	}
}

// Lookup handles IP-to-country resolution.
type Lookup struct {
	db          *maxminddb.Reader
	dbPath      string
	dbModTime   time.Time
	initialized bool
	enabled     bool
	mu          sync.RWMutex
}

// geoRecord matches the GeoLite2-Country database structure.
type geoRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// NewLookup creates a GeoIP lookup instance. Call Init before use.
func NewLookup() *Lookup {
	return &Lookup{}
}

// Init loads the database from dbPath. An empty path disables lookups
// without error; a missing or unreadable database returns an error the
// caller may log and ignore.
func (g *Lookup) Init(dbPath string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.initialized = true
	g.dbPath = dbPath

	if dbPath == "" {
		g.enabled = false
		return nil
	}

	return g.loadDatabase()
}

// loadDatabase loads or reloads the MaxMind database.
// Caller must hold g.mu write lock.
func (g *Lookup) loadDatabase() error {
	info, err := os.Stat(g.dbPath)
	if err != nil {
		g.enabled = false
		if os.IsNotExist(err) {
			return fmt.Errorf("GeoIP database not found: %s", g.dbPath)
		}
		return fmt.Errorf("GeoIP database stat error: %w", err)
	}

	// Skip reload if not modified
	if g.db != nil && info.ModTime().Equal(g.dbModTime) {
		return nil
	}

	if g.db != nil {
		_ = g.db.Close()
		g.db = nil
	}

	db, err := maxminddb.Open(g.dbPath)
	if err != nil {
		g.enabled = false
		return fmt.Errorf("opening GeoIP database: %w", err)
	}

	g.db = db
	g.dbModTime = info.ModTime()
	g.enabled = true

	return nil
}

// Reload reloads the database if the file changed on disk. Safe to
// call periodically from a cron job; the refreshed GeoLite2 file can
// be dropped in place without a restart.
func (g *Lookup) Reload() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.dbPath == "" {
		return nil
	}

	return g.loadDatabase()
}

// LookupCode returns the 2-letter ISO country code for an IP address,
// "LOCAL" for private and loopback addresses, or an empty string when
// the IP is invalid or the database is unavailable.
func (g *Lookup) LookupCode(ip string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.initialized {
		return ""
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return ""
	}

	if isPrivateIP(parsedIP) || parsedIP.IsLoopback() {
		return "LOCAL"
	}

	if !g.enabled || g.db == nil {
		return ""
	}

	var record geoRecord
	if err := g.db.Lookup(parsedIP, &record); err != nil {
		return ""
	}

	return record.Country.ISOCode
}

// Country returns a display name for the IP's country, or an empty
// string when it cannot be resolved. This is what visit records store.
func (g *Lookup) Country(ip string) string {
	code := g.LookupCode(ip)
	if code == "" {
		return ""
	}
	return CountryName(code)
}

// IsEnabled reports whether database lookups are available.
func (g *Lookup) IsEnabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.enabled
}

// Close closes the underlying database.
func (g *Lookup) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db != nil {
		err := g.db.Close()
		g.db = nil
		g.enabled = false
		return err
	}
	return nil
}

// isPrivateIP checks if an IP address is in a private range.
func isPrivateIP(ip net.IP) bool {
	for _, cidr := range privateCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// countryNames maps ISO codes to display names for the countries that
// show up in practice. Unmapped codes fall back to the code itself.
var countryNames = map[string]string{
	"LOCAL": "Local Network",
	"US":    "United States",
	"GB":    "United Kingdom",
	"DE":    "Germany",
	"FR":    "France",
	"ES":    "Spain",
	"IT":    "Italy",
	"NL":    "Netherlands",
	"PL":    "Poland",
	"SE":    "Sweden",
	"NO":    "Norway",
	"DK":    "Denmark",
	"FI":    "Finland",
	"CH":    "Switzerland",
	"AT":    "Austria",
	"PT":    "Portugal",
	"IE":    "Ireland",
	"CZ":    "Czech Republic",
	"UA":    "Ukraine",
	"TR":    "Turkey",
	"CA":    "Canada",
	"MX":    "Mexico",
	"BR":    "Brazil",
	"AR":    "Argentina",
	"AU":    "Australia",
	"NZ":    "New Zealand",
	"JP":    "Japan",
	"CN":    "China",
	"KR":    "South Korea",
	"IN":    "India",
	"SG":    "Singapore",
	"HK":    "Hong Kong",
	"ID":    "Indonesia",
	"ZA":    "South Africa",
	"EG":    "Egypt",
	"NG":    "Nigeria",
	"IL":    "Israel",
	"AE":    "United Arab Emirates",
	"SA":    "Saudi Arabia",
}

// CountryName returns the display name for a 2-letter country code.
func CountryName(code string) string {
	if name, ok := countryNames[code]; ok {
		return name
	}
	if code == "" {
		return "Unknown"
	}
	return code
}
