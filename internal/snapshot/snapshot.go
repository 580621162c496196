// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

// Package snapshot persists the product list as a JSON file on disk.
// The file is the durable fallback for the public read path and is
// replaced wholesale on every resync.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jasim-space/showcase/internal/model"
)

// File manages a single snapshot file.
type File struct {
	path string
}

// contents is the on-disk format.
type contents struct {
	Products    []model.Product `json:"products"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// NewFile creates a snapshot handle for the given path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the snapshot file path.
func (f *File) Path() string {
	return f.path
}

// Load reads the snapshot. A missing file is not an error: it returns
// an empty list, same as a snapshot that was never written.
func (f *File) Load() ([]model.Product, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var c contents
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return c.Products, nil
}

// Replace atomically replaces the snapshot with the given product list.
// The write goes to a temp file in the same directory followed by a
// rename, so readers never observe a partially written snapshot.
func (f *File) Replace(products []model.Product, now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(contents{
		Products:    products,
		GeneratedAt: now.UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}
