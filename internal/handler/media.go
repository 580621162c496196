// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jasim-space/showcase/internal/imaging"
)

// maxUploadBytes bounds a single image upload.
const maxUploadBytes = 10 << 20

// MediaHandler serves the admin image upload endpoint.
type MediaHandler struct {
	processor *imaging.Processor
	logger    *slog.Logger
}

// NewMediaHandler creates a media handler.
func NewMediaHandler(processor *imaging.Processor, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{processor: processor, logger: logger}
}

// Upload handles POST /api/admin/media. The multipart "file" part is
// processed and stored; the returned URL is what a product's image_url
// should be set to.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.processor.Process(file, header.Filename)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			writeError(w, http.StatusBadRequest, "Unsupported image format")
			return
		}
		h.logger.Error("image upload failed", "category", "media", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process image")
		return
	}

	h.logger.Info("image uploaded", "category", "media",
		"filename", result.Filename, "size", result.Size)
	writeJSON(w, http.StatusCreated, result)
}
