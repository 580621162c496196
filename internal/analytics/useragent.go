// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"github.com/mileusna/useragent"

	"github.com/jasim-space/showcase/internal/model"
)

// ParsedUA holds the fields extracted from a user agent string.
type ParsedUA struct {
	Browser    string
	OS         string
	DeviceType string
}

// parseUserAgent extracts browser, OS, and device type from a user agent string.
func parseUserAgent(uaString string) ParsedUA {
	ua := useragent.Parse(uaString)

	result := ParsedUA{
		Browser: ua.Name,
		OS:      ua.OS,
	}

	// Handle empty/unknown values
	if result.Browser == "" {
		result.Browser = "Unknown"
	}
	if result.OS == "" {
		result.OS = "Unknown"
	}

	switch {
	case ua.Mobile:
		result.DeviceType = model.DeviceMobile
	case ua.Tablet:
		result.DeviceType = model.DeviceTablet
	case ua.Bot:
		result.DeviceType = model.DeviceBot
	default:
		result.DeviceType = model.DeviceDesktop
	}

	return result
}
