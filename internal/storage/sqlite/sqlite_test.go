package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmynk/portfolio/internal/models"
	"github.com/mmynk/portfolio/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreKV(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("Get missing key returns ErrNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "updatedPhotos")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Put then Get round-trips", func(t *testing.T) {
		if err := store.Put(ctx, "banner-storage", []byte(`{"showBanner":false}`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := store.Get(ctx, "banner-storage")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != `{"showBanner":false}` {
			t.Errorf("value mismatch: got %s", got)
		}
	})

	t.Run("Put replaces existing value", func(t *testing.T) {
		store.Put(ctx, "k", []byte("one"))
		store.Put(ctx, "k", []byte("two"))
		got, _ := store.Get(ctx, "k")
		if string(got) != "two" {
			t.Errorf("expected overwrite, got %s", got)
		}
	})

	t.Run("Delete removes key and tolerates missing", func(t *testing.T) {
		store.Put(ctx, "gone", []byte("x"))
		if err := store.Delete(ctx, "gone"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := store.Get(ctx, "gone"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := store.Delete(ctx, "never-there"); err != nil {
			t.Errorf("Delete of missing key failed: %v", err)
		}
	})
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	first, err := New(dbPath)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := first.Put(ctx, "updatedPhotos", []byte(`{"5":{"title":"Sunset over the bay"}}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	first.Close()

	second, err := New(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	got, err := second.Get(ctx, "updatedPhotos")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got) != `{"5":{"title":"Sunset over the bay"}}` {
		t.Errorf("value lost across reopen: %s", got)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file missing: %v", err)
	}
}

func TestSQLiteStoreAccounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateAccount generates ID and timestamps", func(t *testing.T) {
		account := &models.Account{Email: " Jane@Example.com ", DisplayName: "Jane", PasswordHash: "hash"}
		if err := store.CreateAccount(ctx, account); err != nil {
			t.Fatalf("CreateAccount failed: %v", err)
		}
		if account.ID == "" {
			t.Error("Expected account ID to be generated")
		}
		if account.CreatedAt == 0 || account.UpdatedAt == 0 {
			t.Error("Expected timestamps to be set")
		}
		if account.Email != "jane@example.com" {
			t.Errorf("Expected normalized email, got %q", account.Email)
		}
	})

	t.Run("Duplicate email conflicts", func(t *testing.T) {
		err := store.CreateAccount(ctx, &models.Account{Email: "jane@example.com", DisplayName: "Other", PasswordHash: "h"})
		if !errors.Is(err, storage.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("Lookup by email and ID", func(t *testing.T) {
		byEmail, err := store.GetAccountByEmail(ctx, "JANE@example.com")
		if err != nil {
			t.Fatalf("GetAccountByEmail failed: %v", err)
		}
		byID, err := store.GetAccountByID(ctx, byEmail.ID)
		if err != nil {
			t.Fatalf("GetAccountByID failed: %v", err)
		}
		if byID.DisplayName != "Jane" || byID.PasswordHash != "hash" {
			t.Errorf("account mismatch: %+v", byID)
		}
	})

	t.Run("Missing account returns ErrNotFound", func(t *testing.T) {
		if _, err := store.GetAccountByEmail(ctx, "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := store.GetAccountByID(ctx, "nonexistent-id"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
