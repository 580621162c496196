// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Device types derived from the visitor user agent.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
)

// Visit is a single recorded page view. Browser, OS, device type and
// country are derived server-side at ingest time.
type Visit struct {
	ID         int64
	PagePath   string
	IPAddress  string
	UserAgent  string
	Browser    string
	OS         string
	DeviceType string
	Country    string
	VisitedAt  time.Time
}
