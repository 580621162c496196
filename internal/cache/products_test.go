package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jasim-space/showcase/internal/model"
)

func TestProductCache_RoundTrip(t *testing.T) {
	c := NewProductCache(NewSimpleMemoryCache(time.Minute), time.Minute)
	ctx := context.Background()

	if _, ok := c.Get(ctx); ok {
		t.Fatal("empty cache reported a hit")
	}

	products := []model.Product{
		{ID: "a", Title: "A", IsFeatured: true, CreatedAt: time.Now().UTC()},
		{ID: "b", Title: "B", CreatedAt: time.Now().UTC()},
	}
	if err := c.Set(ctx, products); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := c.Get(ctx)
	if !ok {
		t.Fatal("Get missed after Set")
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("Get = %+v", got)
	}
}

func TestProductCache_EmptyListNotStored(t *testing.T) {
	c := NewProductCache(NewSimpleMemoryCache(time.Minute), time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, nil); err != nil {
		t.Fatalf("Set(nil): %v", err)
	}
	if err := c.Set(ctx, []model.Product{}); err != nil {
		t.Fatalf("Set(empty): %v", err)
	}
	if _, ok := c.Get(ctx); ok {
		t.Error("empty list was stored as last known good")
	}
}

func TestProductCache_SetReplaces(t *testing.T) {
	c := NewProductCache(NewSimpleMemoryCache(time.Minute), time.Minute)
	ctx := context.Background()

	_ = c.Set(ctx, []model.Product{{ID: "a"}})
	_ = c.Set(ctx, []model.Product{{ID: "b"}, {ID: "c"}})

	got, ok := c.Get(ctx)
	if !ok || len(got) != 2 || got[0].ID != "b" {
		t.Errorf("Get = (%+v, %v), want replaced list", got, ok)
	}
}

func TestProductCache_Invalidate(t *testing.T) {
	c := NewProductCache(NewSimpleMemoryCache(time.Minute), time.Minute)
	ctx := context.Background()

	_ = c.Set(ctx, []model.Product{{ID: "a"}})
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok := c.Get(ctx); ok {
		t.Error("Get hit after Invalidate")
	}
}
