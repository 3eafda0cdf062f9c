// ABOUTME: Tests for SQLite store lifecycle, catalog, and session persistence
// ABOUTME: Covers schema creation, product/order CRUD, and session expiry filtering

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStore(dbPath, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	// Verify the database file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("nested directory was not created")
	}
}

func TestNewSQLiteStore_InMemory(t *testing.T) {
	store, err := NewSQLiteStore(":memory:", nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.CreateUser(ctx, &User{Username: "mem", Active: true}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := store.GetUserByUsername(ctx, "mem"); err != nil {
		t.Errorf("GetUserByUsername on in-memory store failed: %v", err)
	}
}

func TestNewSQLiteStore_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(dbPath, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := store.CreateUser(ctx, &User{Username: "john", Active: true}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	store.Close()

	store, err = NewSQLiteStore(dbPath, nil)
	if err != nil {
		t.Fatalf("reopening store failed: %v", err)
	}
	defer store.Close()

	if _, err := store.GetUserByUsername(ctx, "john"); err != nil {
		t.Errorf("user missing after reopen: %v", err)
	}
}

func TestProducts_CRUD(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p := &Product{Name: "Laptop", Description: "14 inch", Price: 99900}
	if err := store.CreateProduct(ctx, p); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	if p.ID == 0 {
		t.Fatal("CreateProduct did not set ID")
	}

	got, err := store.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if *got != *p {
		t.Errorf("GetProduct = %+v, want %+v", got, p)
	}

	newPrice := int64(89900)
	updated, err := store.UpdateProduct(ctx, p.ID, ProductPatch{Price: &newPrice})
	if err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}
	if updated.Price != newPrice || updated.Name != "Laptop" {
		t.Errorf("UpdateProduct = %+v, want price %d with name kept", updated, newPrice)
	}

	list, err := store.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(list) != 1 || list[0].Price != newPrice {
		t.Errorf("ListProducts = %+v, want the updated product", list)
	}

	if err := store.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProduct failed: %v", err)
	}
	if _, err := store.GetProduct(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProduct after delete error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteProduct(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteProduct error = %v, want ErrNotFound", err)
	}
}

func TestProducts_UpdateNotFound(t *testing.T) {
	store := setupTestStore(t)

	name := "x"
	_, err := store.UpdateProduct(context.Background(), 123, ProductPatch{Name: &name})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateProduct error = %v, want ErrNotFound", err)
	}
}

func TestProducts_ListEmpty(t *testing.T) {
	store := setupTestStore(t)

	list, err := store.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("ListProducts = %v, want empty non-nil slice", list)
	}
}

func TestOrders_CreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	a := &Product{Name: "A", Price: 100}
	b := &Product{Name: "B", Price: 200}
	for _, p := range []*Product{a, b} {
		if err := store.CreateProduct(ctx, p); err != nil {
			t.Fatalf("CreateProduct failed: %v", err)
		}
	}

	order := &Order{PromoCode: "PROMO10"}
	// Duplicate IDs collapse into a single link
	if err := store.CreateOrder(ctx, order, []int64{b.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	got, err := store.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if got.PromoCode != "PROMO10" {
		t.Errorf("PromoCode = %q, want PROMO10", got.PromoCode)
	}
	if len(got.Products) != 2 {
		t.Fatalf("len(Products) = %d, want 2", len(got.Products))
	}
	if got.Products[0].ID != a.ID || got.Products[1].ID != b.ID {
		t.Errorf("Products not ordered by ID: %+v", got.Products)
	}

	// A referenced product cannot be deleted
	if err := store.DeleteProduct(ctx, a.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("DeleteProduct of ordered product error = %v, want ErrConflict", err)
	}
}

func TestOrders_UnknownProduct(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	order := &Order{}
	err := store.CreateOrder(ctx, order, []int64{777})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("CreateOrder error = %v, want ErrNotFound", err)
	}

	// Rolled back: the order row must not exist
	if _, err := store.GetOrder(ctx, order.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetOrder after failed create error = %v, want ErrNotFound", err)
	}
}

func TestOrders_NoPromoNoProducts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	order := &Order{}
	if err := store.CreateOrder(ctx, order, nil); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	got, err := store.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if got.PromoCode != "" || len(got.Products) != 0 {
		t.Errorf("GetOrder = %+v, want no promo and no products", got)
	}
}

func TestSessions_CreateGetDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	session := &Session{ID: "abc", Username: "john", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := store.GetSession(ctx, "abc")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Username != "john" || !got.CreatedAt.Equal(now) || !got.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("GetSession = %+v, want john with matching times", got)
	}

	if err := store.CreateSession(ctx, session); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate CreateSession error = %v, want ErrConflict", err)
	}

	if err := store.DeleteSession(ctx, "abc"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := store.GetSession(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession after delete error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteSession(ctx, "abc"); err != nil {
		t.Errorf("deleting missing session should be a no-op, got %v", err)
	}
}

func TestSessions_Expiry(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	sessions := []*Session{
		{ID: "expired", Username: "a", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)},
		{ID: "live", Username: "b", CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
		{ID: "forever", Username: "c", CreatedAt: now},
	}
	for _, s := range sessions {
		if err := store.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession(%s) failed: %v", s.ID, err)
		}
	}

	if _, err := store.GetSession(ctx, "expired"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession(expired) error = %v, want ErrNotFound", err)
	}
	forever, err := store.GetSession(ctx, "forever")
	if err != nil {
		t.Fatalf("GetSession(forever) failed: %v", err)
	}
	if !forever.ExpiresAt.IsZero() {
		t.Errorf("forever.ExpiresAt = %v, want zero", forever.ExpiresAt)
	}

	n, err := store.DeleteExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpiredSessions removed %d, want 1", n)
	}

	// Advance past the live session's expiry
	now = now.Add(2 * time.Hour)
	if _, err := store.GetSession(ctx, "live"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession(live) after expiry error = %v, want ErrNotFound", err)
	}
	if _, err := store.GetSession(ctx, "forever"); err != nil {
		t.Errorf("GetSession(forever) after advance failed: %v", err)
	}
}
