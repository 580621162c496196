// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the core domain types shared across the application.
package model

import "time"

// Product is a single showcase entry managed through the admin panel and
// served to the public site.
type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	ButtonURL   string    `json:"button_url"`
	IsFeatured  bool      `json:"is_featured"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PlaceholderImageURL is served for products without an uploaded image.
const PlaceholderImageURL = "/static/placeholder.svg"

// DisplayImageURL returns the product image URL, falling back to the
// placeholder when no image has been uploaded.
func (p Product) DisplayImageURL() string {
	if p.ImageURL == "" {
		return PlaceholderImageURL
	}
	return p.ImageURL
}
