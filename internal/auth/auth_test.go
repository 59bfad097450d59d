package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/portfolio/internal/models"
	"github.com/mmynk/portfolio/internal/storage"
	"github.com/mmynk/portfolio/internal/storage/memory"
	"github.com/mmynk/portfolio/pkg/logging"
)

const testSecret = "test-secret-key-for-testing-only"

func TestJWTManager(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)
	id := &models.Identity{UID: "u-1", DisplayName: "Jane", Email: "jane@example.com"}

	token, err := m.Generate(id)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.Identity())
	assert.Equal(t, "u-1", claims.Subject)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewJWTManager("other", time.Hour).Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("expired", func(t *testing.T) {
		expired, err := NewJWTManager(testSecret, -time.Minute).Generate(id)
		require.NoError(t, err)
		_, err = m.Validate(expired)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("empty", func(t *testing.T) {
		_, err := m.Validate("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})
}

func TestPasswordAuthenticator(t *testing.T) {
	a := NewPasswordAuthenticator(memory.New())
	ctx := context.Background()

	_, err := a.Register(ctx, "jane@example.com", "Jane", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = a.Register(ctx, "  ", "Jane", "password123")
	assert.ErrorIs(t, err, ErrMissingEmail)

	account, err := a.Register(ctx, "jane@example.com", "Jane", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, account.ID)
	assert.NotEqual(t, "password123", account.PasswordHash)

	_, err = a.Register(ctx, "JANE@example.com", "Other", "password123")
	assert.ErrorIs(t, err, ErrEmailExists)

	got, err := a.Authenticate(ctx, "jane@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)

	_, err = a.Authenticate(ctx, "jane@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Authenticate(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

type providerFixture struct {
	store    *memory.Store
	tokens   *JWTManager
	provider *LocalProvider
	creds    Credentials
}

func newProvider(t *testing.T, popups bool) *providerFixture {
	t.Helper()
	store := memory.New()
	tokens := NewJWTManager(testSecret, time.Hour)
	p, err := NewLocalProvider(context.Background(), NewPasswordAuthenticator(store), tokens, store, popups, logging.Discard())
	require.NoError(t, err)

	_, err = p.Register(context.Background(), "jane@example.com", "Jane", "password123")
	require.NoError(t, err)
	return &providerFixture{
		store:    store,
		tokens:   tokens,
		provider: p,
		creds:    Credentials{Email: "jane@example.com", Password: "password123"},
	}
}

type recorder struct {
	mu   sync.Mutex
	seen []*models.Identity
}

func (r *recorder) record(id *models.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, id)
}

func (r *recorder) all() []*models.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Identity(nil), r.seen...)
}

func TestPopupSignInAndOut(t *testing.T) {
	f := newProvider(t, true)
	ctx := context.Background()
	rec := &recorder{}
	unsubscribe := f.provider.OnAuthStateChanged(rec.record)
	defer unsubscribe()

	id, err := f.provider.SignInWithPopup(ctx, f.creds)
	require.NoError(t, err)
	assert.Equal(t, "Jane", id.DisplayName)

	token, err := f.store.Get(ctx, SessionKey)
	require.NoError(t, err)
	claims, err := f.tokens.Validate(string(token))
	require.NoError(t, err)
	assert.Equal(t, id.UID, claims.UID)

	require.NoError(t, f.provider.SignOut(ctx))
	_, err = f.store.Get(ctx, SessionKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	seen := rec.all()
	require.Len(t, seen, 3)
	assert.Nil(t, seen[0])
	assert.Equal(t, id, seen[1])
	assert.Nil(t, seen[2])
}

func TestPopupBlocked(t *testing.T) {
	f := newProvider(t, false)

	_, err := f.provider.SignInWithPopup(context.Background(), f.creds)
	assert.ErrorIs(t, err, ErrPopupBlocked)
	assert.Nil(t, f.provider.Current())
}

func TestPopupWrongPassword(t *testing.T) {
	f := newProvider(t, true)

	_, err := f.provider.SignInWithPopup(context.Background(), Credentials{Email: f.creds.Email, Password: "nope-nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRedirectFlow(t *testing.T) {
	f := newProvider(t, false)
	ctx := context.Background()

	id, err := f.provider.RedirectResult(ctx)
	require.NoError(t, err)
	assert.Nil(t, id)

	require.NoError(t, f.provider.SignInWithRedirect(ctx, f.creds))
	assert.Nil(t, f.provider.Current(), "redirect does not sign in by itself")

	id, err = f.provider.RedirectResult(ctx)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "jane@example.com", id.Email)
	assert.Equal(t, id, f.provider.Current())

	// consumed once
	again, err := f.provider.RedirectResult(ctx)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestRedirectRejectsBadCredentials(t *testing.T) {
	f := newProvider(t, false)
	ctx := context.Background()

	err := f.provider.SignInWithRedirect(ctx, Credentials{Email: f.creds.Email, Password: "bad-password"})
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	_, err = f.store.Get(ctx, RedirectKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSessionRestoredOnRestart(t *testing.T) {
	f := newProvider(t, true)
	ctx := context.Background()

	id, err := f.provider.SignInWithPopup(ctx, f.creds)
	require.NoError(t, err)

	restarted, err := NewLocalProvider(ctx, NewPasswordAuthenticator(f.store), f.tokens, f.store, true, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, id, restarted.Current())

	var first *models.Identity
	restarted.OnAuthStateChanged(func(got *models.Identity) { first = got })()
	assert.Equal(t, id, first)
}

func TestInvalidStoredSessionIsCleared(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, SessionKey, []byte("garbage")))

	p, err := NewLocalProvider(ctx, NewPasswordAuthenticator(store), NewJWTManager(testSecret, time.Hour), store, true, logging.Discard())
	require.NoError(t, err)
	assert.Nil(t, p.Current())
	_, err = store.Get(ctx, SessionKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	f := newProvider(t, true)
	rec := &recorder{}
	unsubscribe := f.provider.OnAuthStateChanged(rec.record)
	unsubscribe()
	unsubscribe()

	_, err := f.provider.SignInWithPopup(context.Background(), f.creds)
	require.NoError(t, err)
	assert.Len(t, rec.all(), 1)
}
