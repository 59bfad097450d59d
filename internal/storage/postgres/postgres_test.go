package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/portfolio/internal/models"
	"github.com/mmynk/portfolio/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	store, err := Open(context.Background(), dsn, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://***@localhost:5432/db", redactDSN("postgres://user:pw@localhost:5432/db"))
	assert.Equal(t, "postgres://localhost/db", redactDSN("postgres://localhost/db"))
	assert.Equal(t, "not a url", redactDSN("not a url"))
}

func TestStoreKV(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := "test-" + uuid.NewString()
	t.Cleanup(func() { store.Delete(ctx, key) })

	_, err := store.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Put(ctx, key, []byte(`{"a":1}`)))
	require.NoError(t, store.Put(ctx, key, []byte(`{"a":2}`)))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(got))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestStoreAccounts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	email := uuid.NewString() + "@example.com"

	account := &models.Account{Email: email, DisplayName: "Test", PasswordHash: "hash"}
	require.NoError(t, store.CreateAccount(ctx, account))
	assert.NotEmpty(t, account.ID)

	err := store.CreateAccount(ctx, &models.Account{Email: email, DisplayName: "Dup", PasswordHash: "h"})
	assert.ErrorIs(t, err, storage.ErrConflict)

	got, err := store.GetAccountByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)

	got, err = store.GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, email, got.Email)

	_, err = store.GetAccountByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
