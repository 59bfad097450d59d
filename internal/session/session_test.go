package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/portfolio/internal/auth"
	"github.com/mmynk/portfolio/internal/models"
	"github.com/mmynk/portfolio/internal/storage/memory"
	"github.com/mmynk/portfolio/pkg/logging"
)

// fakeProvider only notifies when emit is called.
type fakeProvider struct {
	mu          sync.Mutex
	listener    func(*models.Identity)
	popupErr    error
	redirectErr error
	signOutErr  error
	redirects   int
	pending     *models.Identity
}

func (p *fakeProvider) SignInWithPopup(context.Context, auth.Credentials) (*models.Identity, error) {
	if p.popupErr != nil {
		return nil, p.popupErr
	}
	id := &models.Identity{UID: "popup"}
	p.emit(id)
	return id, nil
}

func (p *fakeProvider) SignInWithRedirect(context.Context, auth.Credentials) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.redirects++
	return p.redirectErr
}

func (p *fakeProvider) RedirectResult(context.Context) (*models.Identity, error) {
	p.mu.Lock()
	id := p.pending
	p.pending = nil
	p.mu.Unlock()
	if id != nil {
		p.emit(id)
	}
	return id, nil
}

func (p *fakeProvider) SignOut(context.Context) error {
	if p.signOutErr != nil {
		return p.signOutErr
	}
	p.emit(nil)
	return nil
}

func (p *fakeProvider) OnAuthStateChanged(fn func(*models.Identity)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.listener = nil
	}
}

func (p *fakeProvider) emit(id *models.Identity) {
	p.mu.Lock()
	fn := p.listener
	p.mu.Unlock()
	if fn != nil {
		fn(id)
	}
}

func newManager(t *testing.T, p auth.Provider) *Manager {
	t.Helper()
	m := NewManager(p, logging.Discard())
	t.Cleanup(m.Close)
	<-m.Ready()
	return m
}

func TestStateTransitions(t *testing.T) {
	p := &fakeProvider{}
	m := newManager(t, p)

	snap := m.Current()
	assert.Equal(t, Unknown, snap.State)
	assert.Nil(t, snap.User)
	assert.True(t, snap.Loading)

	jane := &models.Identity{UID: "u-1", Email: "jane@example.com"}
	p.emit(jane)
	snap = m.Current()
	assert.Equal(t, Authenticated, snap.State)
	assert.Equal(t, jane, snap.User)
	assert.False(t, snap.Loading)

	p.emit(nil)
	snap = m.Current()
	assert.Equal(t, Unauthenticated, snap.State)
	assert.Nil(t, snap.User)
	assert.False(t, snap.Loading)
}

func TestSignInPopup(t *testing.T) {
	p := &fakeProvider{}
	m := newManager(t, p)

	outcome, err := m.SignIn(context.Background(), auth.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, OutcomePopup, outcome)
	assert.Equal(t, Authenticated, m.State())
	assert.Zero(t, p.redirects)
}

func TestSignInFallsBackToRedirect(t *testing.T) {
	p := &fakeProvider{popupErr: auth.ErrPopupBlocked}
	m := newManager(t, p)

	outcome, err := m.SignIn(context.Background(), auth.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRedirect, outcome)
	assert.Equal(t, 1, p.redirects)
	assert.Equal(t, Unknown, m.State())

	p.mu.Lock()
	p.pending = &models.Identity{UID: "redirected"}
	p.mu.Unlock()
	id, err := m.CompleteRedirect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "redirected", id.UID)
	assert.Equal(t, Authenticated, m.State())
}

func TestSignInReturnsPopupErrorWhenBothFail(t *testing.T) {
	popupErr := errors.New("popup closed by user")
	p := &fakeProvider{popupErr: popupErr, redirectErr: errors.New("redirect failed")}
	m := newManager(t, p)

	outcome, err := m.SignIn(context.Background(), auth.Credentials{})
	assert.Equal(t, OutcomeNone, outcome)
	assert.Same(t, popupErr, err)
}

func TestSignOutFailureIsSwallowed(t *testing.T) {
	p := &fakeProvider{signOutErr: errors.New("network down")}
	m := newManager(t, p)
	p.emit(&models.Identity{UID: "u-1"})

	m.SignOut(context.Background())
	assert.Equal(t, Authenticated, m.State())

	p.signOutErr = nil
	m.SignOut(context.Background())
	assert.Equal(t, Unauthenticated, m.State())
}

func TestSubscribe(t *testing.T) {
	p := &fakeProvider{}
	m := newManager(t, p)

	ch, cancel := m.Subscribe()
	first := <-ch
	assert.Equal(t, Unknown, first.State)

	p.emit(&models.Identity{UID: "a"})
	p.emit(nil)
	select {
	case snap := <-ch:
		assert.Equal(t, Unauthenticated, snap.State, "latest snapshot wins")
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}

	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	cancel()
}

func TestCloseEndsSubscriptions(t *testing.T) {
	p := &fakeProvider{}
	m := NewManager(p, logging.Discard())
	<-m.Ready()
	ch, _ := m.Subscribe()
	<-ch

	m.Close()
	_, ok := <-ch
	assert.False(t, ok)

	late, _ := m.Subscribe()
	_, ok = <-late
	assert.False(t, ok)

	p.emit(&models.Identity{UID: "ignored"})
	assert.Equal(t, Unknown, m.State())
}

func TestPendingRedirectCompletesAtStartup(t *testing.T) {
	p := &fakeProvider{pending: &models.Identity{UID: "from-redirect"}}
	m := newManager(t, p)

	assert.Equal(t, Authenticated, m.State())
	assert.Equal(t, "from-redirect", m.Current().User.UID)
}

func TestWithLocalProvider(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	tokens := auth.NewJWTManager("secret", time.Hour)
	provider, err := auth.NewLocalProvider(ctx, auth.NewPasswordAuthenticator(store), tokens, store, false, logging.Discard())
	require.NoError(t, err)
	_, err = provider.Register(ctx, "jane@example.com", "Jane", "password123")
	require.NoError(t, err)

	m := newManager(t, provider)
	assert.Equal(t, Unauthenticated, m.State())

	outcome, err := m.SignIn(ctx, auth.Credentials{Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRedirect, outcome)

	id, err := m.CompleteRedirect(ctx)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, Authenticated, m.State())
	assert.Equal(t, "Jane", m.Current().User.DisplayName)

	_, err = m.SignIn(ctx, auth.Credentials{Email: "jane@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, auth.ErrPopupBlocked)
}

func TestSnapshotJSON(t *testing.T) {
	snap := Snapshot{State: Authenticated, User: &models.Identity{UID: "u"}}
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"authenticated","user":{"uid":"u"},"loading":false}`, string(data))
}

// gatedProvider reports signed out on subscribe and holds the redirect
// result until release is closed.
type gatedProvider struct {
	*fakeProvider
	release chan struct{}
}

func (p *gatedProvider) OnAuthStateChanged(fn func(*models.Identity)) func() {
	unsubscribe := p.fakeProvider.OnAuthStateChanged(fn)
	fn(nil)
	return unsubscribe
}

func (p *gatedProvider) RedirectResult(ctx context.Context) (*models.Identity, error) {
	<-p.release
	return p.fakeProvider.RedirectResult(ctx)
}

func TestStaysUnknownUntilRedirectCheckEnds(t *testing.T) {
	p := &gatedProvider{
		fakeProvider: &fakeProvider{pending: &models.Identity{UID: "parked"}},
		release:      make(chan struct{}),
	}
	m := NewManager(p, logging.Discard())
	t.Cleanup(m.Close)

	assert.Equal(t, Unknown, m.State())
	assert.True(t, m.Current().Loading)

	close(p.release)
	<-m.Ready()
	assert.Equal(t, Authenticated, m.State())
	assert.Equal(t, "parked", m.Current().User.UID)
}

func TestParkedRedirectCompletesAfterRestart(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	tokens := auth.NewJWTManager("secret", time.Hour)
	authn := auth.NewPasswordAuthenticator(store)

	before, err := auth.NewLocalProvider(ctx, authn, tokens, store, false, logging.Discard())
	require.NoError(t, err)
	_, err = before.Register(ctx, "jane@example.com", "Jane", "password123")
	require.NoError(t, err)
	require.NoError(t, before.SignInWithRedirect(ctx, auth.Credentials{Email: "jane@example.com", Password: "password123"}))

	after, err := auth.NewLocalProvider(ctx, authn, tokens, store, false, logging.Discard())
	require.NoError(t, err)
	m := NewManager(after, logging.Discard())
	t.Cleanup(m.Close)

	ch, cancel := m.Subscribe()
	defer cancel()
	assert.NotEqual(t, Unauthenticated, (<-ch).State)

	<-m.Ready()
	assert.Equal(t, Authenticated, m.State())
	assert.Equal(t, "Jane", m.Current().User.DisplayName)
}
