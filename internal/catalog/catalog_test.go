// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jasim-space/showcase/internal/cache"
	"github.com/jasim-space/showcase/internal/model"
	"github.com/jasim-space/showcase/internal/snapshot"
	"github.com/jasim-space/showcase/internal/store"
)

// stubStore lets tests script the live read path and record writes.
type stubStore struct {
	products []model.Product
	listErr  error

	created []store.CreateProductParams
	updated []store.UpdateProductParams
	deleted []string

	updateErr error
	deleteErr error
}

func (s *stubStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.products, nil
}

func (s *stubStore) GetProduct(ctx context.Context, id string) (model.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Product{}, sql.ErrNoRows
}

func (s *stubStore) CreateProduct(ctx context.Context, arg store.CreateProductParams) (model.Product, error) {
	s.created = append(s.created, arg)
	return model.Product{
		ID:          arg.ID,
		Title:       arg.Title,
		Description: arg.Description,
		ImageURL:    arg.ImageURL,
		ButtonURL:   arg.ButtonURL,
		IsFeatured:  arg.IsFeatured,
		CreatedAt:   arg.CreatedAt,
		UpdatedAt:   arg.UpdatedAt,
	}, nil
}

func (s *stubStore) UpdateProduct(ctx context.Context, arg store.UpdateProductParams) (model.Product, error) {
	if s.updateErr != nil {
		return model.Product{}, s.updateErr
	}
	s.updated = append(s.updated, arg)
	return model.Product{ID: arg.ID, Title: arg.Title, ButtonURL: arg.ButtonURL}, nil
}

func (s *stubStore) DeleteProduct(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func testService(t *testing.T, st Store) (*Service, *snapshot.File) {
	t.Helper()
	snap := snapshot.NewFile(filepath.Join(t.TempDir(), "static-products.json"))
	pc := cache.NewProductCache(cache.NewSimpleMemoryCache(time.Minute), time.Minute)
	return New(st, pc, snap), snap
}

func validInput() Input {
	return Input{
		Title:     "Widget",
		ButtonURL: "https://example.com/widget",
	}
}

func TestList_LiveRefreshesCache(t *testing.T) {
	st := &stubStore{products: []model.Product{{ID: "a", Title: "A"}}}
	svc, _ := testService(t, st)

	res := svc.List(context.Background())
	if res.FromCache {
		t.Error("live read reported fromCache")
	}
	if res.LiveErr != nil {
		t.Errorf("LiveErr = %v", res.LiveErr)
	}
	if len(res.Products) != 1 || res.Products[0].ID != "a" {
		t.Errorf("Products = %+v", res.Products)
	}

	// Now kill the live store; the earlier result must still be served.
	st.listErr = errors.New("db down")
	res = svc.List(context.Background())
	if !res.FromCache {
		t.Error("fallback read did not report fromCache")
	}
	if len(res.Products) != 1 || res.Products[0].ID != "a" {
		t.Errorf("fallback Products = %+v", res.Products)
	}
	if res.LiveErr != nil {
		t.Errorf("LiveErr with fallback data = %v, want nil", res.LiveErr)
	}
}

func TestList_SnapshotBeforeCache(t *testing.T) {
	st := &stubStore{listErr: errors.New("db down")}
	svc, snap := testService(t, st)

	if err := snap.Replace([]model.Product{{ID: "snap"}}, time.Now()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	// Seed the cache with something different so precedence is observable.
	_ = svc.cache.Set(context.Background(), []model.Product{{ID: "cached"}})

	res := svc.List(context.Background())
	if !res.FromCache {
		t.Error("snapshot read did not report fromCache")
	}
	if len(res.Products) != 1 || res.Products[0].ID != "snap" {
		t.Errorf("Products = %+v, want snapshot contents", res.Products)
	}
}

func TestList_EmptySnapshotFallsThroughToCache(t *testing.T) {
	st := &stubStore{listErr: errors.New("db down")}
	svc, snap := testService(t, st)

	if err := snap.Replace(nil, time.Now()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	_ = svc.cache.Set(context.Background(), []model.Product{{ID: "cached"}})

	res := svc.List(context.Background())
	if !res.FromCache || len(res.Products) != 1 || res.Products[0].ID != "cached" {
		t.Errorf("List = %+v, want cached contents", res)
	}
}

func TestList_LiveErrorNoFallback(t *testing.T) {
	liveErr := errors.New("db down")
	svc, _ := testService(t, &stubStore{listErr: liveErr})

	res := svc.List(context.Background())
	if !errors.Is(res.LiveErr, liveErr) {
		t.Errorf("LiveErr = %v, want the live read error", res.LiveErr)
	}
	if res.Products == nil {
		t.Error("Products = nil, want empty slice")
	}
}

func TestList_EmptyCatalog(t *testing.T) {
	svc, _ := testService(t, &stubStore{})

	res := svc.List(context.Background())
	if res.LiveErr != nil {
		t.Errorf("LiveErr = %v, empty catalog is not a failure", res.LiveErr)
	}
	if res.FromCache || len(res.Products) != 0 {
		t.Errorf("List = %+v, want empty live result", res)
	}
}

func TestCreate_AssignsIDAndTimestamps(t *testing.T) {
	st := &stubStore{}
	svc, _ := testService(t, st)
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	svc.SetNow(func() time.Time { return now })

	in := validInput()
	in.Title = "  Widget  "
	p, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == "" {
		t.Error("Create did not assign an ID")
	}
	if p.Title != "Widget" {
		t.Errorf("Title = %q, want trimmed", p.Title)
	}
	if !p.CreatedAt.Equal(now) || !p.UpdatedAt.Equal(now) {
		t.Errorf("timestamps = %v/%v, want %v", p.CreatedAt, p.UpdatedAt, now)
	}
	if len(st.created) != 1 {
		t.Fatalf("store received %d creates", len(st.created))
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := testService(t, &stubStore{})

	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"empty title", func(in *Input) { in.Title = "" }},
		{"whitespace title", func(in *Input) { in.Title = "   " }},
		{"empty button url", func(in *Input) { in.ButtonURL = "" }},
		{"relative button url", func(in *Input) { in.ButtonURL = "/pricing" }},
		{"bad scheme", func(in *Input) { in.ButtonURL = "ftp://example.com" }},
		{"not a url", func(in *Input) { in.ButtonURL = "://nope" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			if _, err := svc.Create(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Create: err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestCreate_RendersDescription(t *testing.T) {
	st := &stubStore{}
	svc, _ := testService(t, st)

	in := validInput()
	in.Description = "**bold** <script>alert(1)</script>"
	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Fatalf("Create: %v", err)
	}

	desc := st.created[0].Description
	if !strings.Contains(desc, "<strong>bold</strong>") {
		t.Errorf("description = %q, want rendered markdown", desc)
	}
	if strings.Contains(desc, "<script>") {
		t.Errorf("description = %q, script tag survived sanitization", desc)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := testService(t, &stubStore{updateErr: sql.ErrNoRows})

	_, err := svc.Update(context.Background(), "missing", validInput())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update: err = %v, want ErrNotFound", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc, _ := testService(t, &stubStore{deleteErr: sql.ErrNoRows})

	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete: err = %v, want ErrNotFound", err)
	}
}

func TestWrites_TriggerResync(t *testing.T) {
	st := &stubStore{}
	svc, _ := testService(t, st)

	triggers := 0
	svc.SetResync(func() { triggers++ })

	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Update(context.Background(), "id", validInput()); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := svc.Delete(context.Background(), "id"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if triggers != 3 {
		t.Errorf("resync triggered %d times, want 3", triggers)
	}

	// A failed validation must not trigger a resync.
	if _, err := svc.Create(context.Background(), Input{}); err == nil {
		t.Fatal("Create with empty input should fail")
	}
	if triggers != 3 {
		t.Errorf("resync triggered on failed write")
	}
}
