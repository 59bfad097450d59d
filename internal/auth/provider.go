package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmynk/portfolio/internal/models"
	"github.com/mmynk/portfolio/internal/storage"
)

// KV keys owned by the local provider.
const (
	SessionKey  = "authSession"
	RedirectKey = "authRedirect"
)

// ErrPopupBlocked is returned by SignInWithPopup when interactive popups are
// not available. Callers fall back to the redirect flow.
var ErrPopupBlocked = errors.New("popup sign-in blocked")

// Credentials are what the sign-in form collects.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Provider is the identity-provider contract the session layer depends on.
type Provider interface {
	// SignInWithPopup completes sign-in in one step.
	SignInWithPopup(ctx context.Context, creds Credentials) (*models.Identity, error)

	// SignInWithRedirect starts a sign-in that finishes on the next
	// RedirectResult call.
	SignInWithRedirect(ctx context.Context, creds Credentials) error

	// RedirectResult completes a pending redirect sign-in. It returns nil, nil
	// when nothing is pending.
	RedirectResult(ctx context.Context) (*models.Identity, error)

	SignOut(ctx context.Context) error

	// OnAuthStateChanged calls fn with the current identity (nil when signed
	// out) and again on every change, until the returned func is called.
	OnAuthStateChanged(fn func(*models.Identity)) (unsubscribe func())
}

// LocalProvider is the bundled identity provider: password accounts in the
// local store, JWT identity tokens, the active token kept under SessionKey.
type LocalProvider struct {
	authn  Authenticator
	tokens *JWTManager
	kv     storage.KV
	popups bool
	logger *slog.Logger

	// mu also serializes listener delivery, so listeners must not call back
	// into the provider.
	mu        sync.Mutex
	current   *models.Identity
	listeners map[int]func(*models.Identity)
	nextID    int
}

// NewLocalProvider restores the identity persisted by a previous run, if its
// token still validates. popups=false makes every popup sign-in fail with
// ErrPopupBlocked.
func NewLocalProvider(ctx context.Context, authn Authenticator, tokens *JWTManager, kv storage.KV, popups bool, logger *slog.Logger) (*LocalProvider, error) {
	p := &LocalProvider{
		authn:     authn,
		tokens:    tokens,
		kv:        kv,
		popups:    popups,
		logger:    logger,
		listeners: map[int]func(*models.Identity){},
	}

	token, err := kv.Get(ctx, SessionKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return p, nil
	case err != nil:
		return nil, fmt.Errorf("read session: %w", err)
	}

	claims, err := tokens.Validate(string(token))
	if err != nil {
		logger.Info("Stored session no longer valid, signing out", "error", err)
		if err := kv.Delete(ctx, SessionKey); err != nil {
			return nil, fmt.Errorf("clear session: %w", err)
		}
		return p, nil
	}
	p.current = claims.Identity()
	logger.Info("Session restored", "uid", p.current.UID)
	return p, nil
}

// Register creates an account. It does not sign in.
func (p *LocalProvider) Register(ctx context.Context, email, displayName, password string) (*models.Identity, error) {
	account, err := p.authn.Register(ctx, email, displayName, password)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Account registered", "uid", account.ID, "email", account.Email)
	return account.Identity(), nil
}

func (p *LocalProvider) SignInWithPopup(ctx context.Context, creds Credentials) (*models.Identity, error) {
	if !p.popups {
		return nil, ErrPopupBlocked
	}
	id, token, err := p.issue(ctx, creds)
	if err != nil {
		return nil, err
	}
	if err := p.activate(ctx, id, token); err != nil {
		return nil, err
	}
	return id, nil
}

func (p *LocalProvider) SignInWithRedirect(ctx context.Context, creds Credentials) error {
	_, token, err := p.issue(ctx, creds)
	if err != nil {
		return err
	}
	if err := p.kv.Put(ctx, RedirectKey, []byte(token)); err != nil {
		return fmt.Errorf("park redirect result: %w", err)
	}
	return nil
}

func (p *LocalProvider) RedirectResult(ctx context.Context) (*models.Identity, error) {
	token, err := p.kv.Get(ctx, RedirectKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read redirect result: %w", err)
	}
	// consumed whether or not it validates
	if err := p.kv.Delete(ctx, RedirectKey); err != nil {
		return nil, fmt.Errorf("clear redirect result: %w", err)
	}

	claims, err := p.tokens.Validate(string(token))
	if err != nil {
		return nil, err
	}
	id := claims.Identity()
	if err := p.activate(ctx, id, string(token)); err != nil {
		return nil, err
	}
	return id, nil
}

func (p *LocalProvider) SignOut(ctx context.Context) error {
	if err := p.kv.Delete(ctx, SessionKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
	p.notifyLocked()
	return nil
}

func (p *LocalProvider) OnAuthStateChanged(fn func(*models.Identity)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	fn(p.current)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.listeners, id)
		})
	}
}

// Current returns the signed-in identity, or nil.
func (p *LocalProvider) Current() *models.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *LocalProvider) issue(ctx context.Context, creds Credentials) (*models.Identity, string, error) {
	account, err := p.authn.Authenticate(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, "", err
	}
	id := account.Identity()
	token, err := p.tokens.Generate(id)
	if err != nil {
		return nil, "", err
	}
	return id, token, nil
}

func (p *LocalProvider) activate(ctx context.Context, id *models.Identity, token string) error {
	if err := p.kv.Put(ctx, SessionKey, []byte(token)); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = id
	p.notifyLocked()
	p.logger.Info("Signed in", "uid", id.UID)
	return nil
}

func (p *LocalProvider) notifyLocked() {
	for _, fn := range p.listeners {
		fn(p.current)
	}
}
