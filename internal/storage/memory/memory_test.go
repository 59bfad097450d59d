package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/portfolio/internal/models"
	"github.com/mmynk/portfolio/internal/storage"
)

func TestStoreCopiesValues(t *testing.T) {
	s := New()
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", buf))
	buf[0] = 'z'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[0] = 'y'
	again, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestStoreAccounts(t *testing.T) {
	s := New()
	ctx := context.Background()

	a := &models.Account{Email: "Ann@Example.com", DisplayName: "Ann", PasswordHash: "h"}
	require.NoError(t, s.CreateAccount(ctx, a))
	assert.Equal(t, "ann@example.com", a.Email)

	assert.ErrorIs(t, s.CreateAccount(ctx, &models.Account{Email: "ann@example.com"}), storage.ErrConflict)

	got, err := s.GetAccountByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = s.GetAccountByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
