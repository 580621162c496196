// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

// Package analytics records page visits and summarizes them for the
// admin dashboard.
package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jasim-space/showcase/internal/model"
	"github.com/jasim-space/showcase/internal/store"
)

// ErrInvalidRange indicates an unrecognized summary range.
var ErrInvalidRange = errors.New("invalid analytics range")

// Range selects the summary window.
type Range string

const (
	RangeDay     Range = "day"
	RangeWeek    Range = "week"
	RangeMonth   Range = "month"
	RangeYear    Range = "year"
	RangeAllTime Range = "alltime"
)

// ParseRange validates a range string from a request.
func ParseRange(s string) (Range, error) {
	switch r := Range(strings.ToLower(strings.TrimSpace(s))); r {
	case RangeDay, RangeWeek, RangeMonth, RangeYear, RangeAllTime:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
}

// start returns the window start for a range relative to now.
func (r Range) start(now time.Time) time.Time {
	switch r {
	case RangeDay:
		return now.Add(-24 * time.Hour)
	case RangeWeek:
		return now.AddDate(0, 0, -7)
	case RangeMonth:
		return now.AddDate(0, -1, 0)
	case RangeYear:
		return now.AddDate(-1, 0, 0)
	default: // RangeAllTime
		return time.Unix(0, 0).UTC()
	}
}

// bucketStart truncates a visit time to its bucket boundary in UTC.
// Day ranges bucket by hour, week and month by calendar day, year and
// alltime by calendar month.
func (r Range) bucketStart(t time.Time) time.Time {
	t = t.UTC()
	switch r {
	case RangeDay:
		return t.Truncate(time.Hour)
	case RangeWeek, RangeMonth:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

// bucketLabel formats a bucket boundary for display.
func (r Range) bucketLabel(t time.Time) string {
	switch r {
	case RangeDay:
		return fmt.Sprintf("%02d:00", t.Hour())
	case RangeWeek, RangeMonth:
		return t.Format("Jan 02")
	default:
		return t.Format("Jan 2006")
	}
}

// VisitStore is the persistence interface the analytics service needs.
type VisitStore interface {
	CreateVisit(ctx context.Context, arg store.CreateVisitParams) error
	ListVisitsSince(ctx context.Context, since time.Time) ([]model.Visit, error)
	EarliestVisit(ctx context.Context) (time.Time, error)
	DeleteVisitsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CountryResolver maps an IP address to a country label.
type CountryResolver interface {
	Country(ip string) string
}

// Service records visits and builds summaries.
type Service struct {
	store VisitStore
	geo   CountryResolver // may be nil when no GeoIP database is configured
	now   func() time.Time
}

// New creates an analytics service.
func New(st VisitStore, geo CountryResolver) *Service {
	return &Service{store: st, geo: geo, now: time.Now}
}

// SetNow overrides the clock, for tests.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// TrackInput is a single visit as reported by the tracking endpoint.
type TrackInput struct {
	PagePath  string
	IPAddress string
	UserAgent string
}

// Track enriches and persists one visit. The user agent is parsed
// server-side and the country resolved from the IP when GeoIP is
// available.
func (s *Service) Track(ctx context.Context, in TrackInput) error {
	pagePath := strings.TrimSpace(in.PagePath)
	if pagePath == "" {
		pagePath = "/"
	}

	parsed := parseUserAgent(in.UserAgent)

	country := ""
	if s.geo != nil {
		country = s.geo.Country(in.IPAddress)
	}

	err := s.store.CreateVisit(ctx, store.CreateVisitParams{
		PagePath:   pagePath,
		IPAddress:  in.IPAddress,
		UserAgent:  in.UserAgent,
		Browser:    parsed.Browser,
		OS:         parsed.OS,
		DeviceType: parsed.DeviceType,
		Country:    country,
		VisitedAt:  s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("recording visit: %w", err)
	}
	return nil
}

// Bucket is one point on the visits-over-time chart.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary aggregates visits over a range.
type Summary struct {
	Range          Range          `json:"range"`
	TotalVisits    int            `json:"totalVisits"`
	UniqueVisitors int            `json:"uniqueVisitors"`
	AvgDaily       int            `json:"avgDaily"`
	Buckets        []Bucket       `json:"buckets"`
	Devices        map[string]int `json:"devices"`
	Browsers       map[string]int `json:"browsers"`
	Countries      map[string]int `json:"countries"`
}

// Summarize computes the dashboard summary for a range. Buckets are
// returned in chronological order and only for periods that had
// visits.
func (s *Service) Summarize(ctx context.Context, r Range) (Summary, error) {
	now := s.now().UTC()

	visits, err := s.store.ListVisitsSince(ctx, r.start(now))
	if err != nil {
		return Summary{}, fmt.Errorf("loading visits: %w", err)
	}

	summary := Summary{
		Range:     r,
		Buckets:   []Bucket{},
		Devices:   make(map[string]int),
		Browsers:  make(map[string]int),
		Countries: make(map[string]int),
	}

	bucketCounts := make(map[time.Time]int)
	uniqueIPs := make(map[string]struct{})

	for _, v := range visits {
		summary.TotalVisits++
		if v.IPAddress != "" {
			uniqueIPs[v.IPAddress] = struct{}{}
		}
		bucketCounts[r.bucketStart(v.VisitedAt)]++
		summary.Devices[v.DeviceType]++
		summary.Browsers[v.Browser]++

		country := v.Country
		if country == "" {
			country = "Unknown"
		}
		summary.Countries[country]++
	}
	summary.UniqueVisitors = len(uniqueIPs)

	starts := make([]time.Time, 0, len(bucketCounts))
	for start := range bucketCounts {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	for _, start := range starts {
		summary.Buckets = append(summary.Buckets, Bucket{
			Label: r.bucketLabel(start),
			Count: bucketCounts[start],
		})
	}

	days, err := s.windowDays(ctx, r, now)
	if err != nil {
		return Summary{}, err
	}
	summary.AvgDaily = int(math.Round(float64(summary.TotalVisits) / float64(days)))

	return summary, nil
}

// windowDays returns the day count the daily average divides by. Fixed
// ranges use their nominal length; alltime spans from the earliest
// recorded visit, never less than one day.
func (s *Service) windowDays(ctx context.Context, r Range, now time.Time) (int, error) {
	switch r {
	case RangeDay:
		return 1, nil
	case RangeWeek:
		return 7, nil
	case RangeMonth:
		return 30, nil
	case RangeYear:
		return 365, nil
	}

	earliest, err := s.store.EarliestVisit(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 1, nil
		}
		return 0, fmt.Errorf("finding earliest visit: %w", err)
	}

	days := int(math.Ceil(now.Sub(earliest).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days, nil
}

// Cleanup deletes visits older than the retention window and returns
// how many rows were removed.
func (s *Service) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -retentionDays)
	deleted, err := s.store.DeleteVisitsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting expired visits: %w", err)
	}
	return deleted, nil
}
