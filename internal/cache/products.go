package cache

import (
	"context"
	"time"

	"github.com/jasim-space/showcase/internal/model"
)

// productsKey is the cache key for the last-known-good product list.
const productsKey = "products:list"

// ProductCache holds the last successfully read non-empty product list.
// It is refreshed on every healthy read and consulted when the live
// store and the snapshot file are both unavailable.
type ProductCache struct {
	typed *TypedCache[[]model.Product]
}

// NewProductCache creates a product cache on top of the given backend.
func NewProductCache(backend Cacher, ttl time.Duration) *ProductCache {
	return &ProductCache{
		typed: NewTypedCache[[]model.Product](backend, ttl),
	}
}

// Get returns the cached product list, or nil and false on a miss.
func (c *ProductCache) Get(ctx context.Context) ([]model.Product, bool) {
	value, ok := c.typed.Get(ctx, productsKey)
	if !ok || value == nil {
		return nil, false
	}
	return *value, true
}

// Set replaces the cached product list. Empty lists are not stored:
// the cache only ever holds a last known good, non-empty result.
func (c *ProductCache) Set(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	return c.typed.Set(ctx, productsKey, &products)
}

// Invalidate drops the cached product list.
func (c *ProductCache) Invalidate(ctx context.Context) error {
	return c.typed.Delete(ctx, productsKey)
}
