// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jasim-space/showcase/internal/catalog"
	"github.com/jasim-space/showcase/internal/model"
)

// ProductsHandler serves the public product list and the admin CRUD
// endpoints.
type ProductsHandler struct {
	catalog *catalog.Service
	logger  *slog.Logger
}

// NewProductsHandler creates a products handler.
func NewProductsHandler(catalogSvc *catalog.Service, logger *slog.Logger) *ProductsHandler {
	return &ProductsHandler{catalog: catalogSvc, logger: logger}
}

// productsResponse is the public read payload.
type productsResponse struct {
	Products  []model.Product `json:"products"`
	FromCache bool            `json:"fromCache"`
	Error     string          `json:"error,omitempty"`
}

// List handles GET /api/products. A 502 is returned only when the live
// read failed and no fallback source had data; a fallback hit is a 200
// with fromCache=true.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	res := h.catalog.List(r.Context())

	if res.LiveErr != nil {
		h.logger.Error("product read failed with no fallback", "error", res.LiveErr)
		writeJSON(w, http.StatusBadGateway, productsResponse{
			Products:  []model.Product{},
			FromCache: false,
			Error:     "Products are temporarily unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, productsResponse{
		Products:  withPlaceholders(res.Products),
		FromCache: res.FromCache,
	})
}

// withPlaceholders fills in the placeholder image for products without
// an uploaded image.
func withPlaceholders(products []model.Product) []model.Product {
	out := make([]model.Product, len(products))
	for i, p := range products {
		p.ImageURL = p.DisplayImageURL()
		out[i] = p
	}
	return out
}

// Create handles POST /api/admin/products.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in catalog.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := h.catalog.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("product create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	h.logger.Info("product created", "id", p.ID, "title", p.Title)
	writeJSON(w, http.StatusCreated, p)
}

// Update handles PUT /api/admin/products/{id}.
func (h *ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in catalog.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := h.catalog.Update(r.Context(), id, in)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, catalog.ErrNotFound):
			writeError(w, http.StatusNotFound, "Product not found")
		default:
			h.logger.Error("product update failed", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to update product")
		}
		return
	}

	h.logger.Info("product updated", "id", p.ID)
	writeJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/admin/products/{id}.
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.catalog.Delete(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("product delete failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	h.logger.Info("product deleted", "id", id)
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
