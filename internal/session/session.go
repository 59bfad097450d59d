// Package session tracks who is signed in.
//
// The Manager is built once per process and handed to whatever needs the
// session (route guard, handlers, the event stream). Its state changes only
// when the identity provider says so.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mmynk/portfolio/internal/auth"
	"github.com/mmynk/portfolio/internal/models"
)

type State int

const (
	// Unknown holds until the provider's first notification.
	Unknown State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Snapshot is the session at one point in time. Loading is true only while
// State is Unknown.
type Snapshot struct {
	State   State            `json:"state"`
	User    *models.Identity `json:"user"`
	Loading bool             `json:"loading"`
}

// Outcome tells the caller how a sign-in finished.
type Outcome int

const (
	OutcomeNone Outcome = iota
	// OutcomePopup means the session is already authenticated.
	OutcomePopup
	// OutcomeRedirect means the caller must finish with CompleteRedirect.
	OutcomeRedirect
)

func (o Outcome) String() string {
	switch o {
	case OutcomePopup:
		return "popup"
	case OutcomeRedirect:
		return "redirect"
	default:
		return "none"
	}
}

type Manager struct {
	provider auth.Provider
	logger   *slog.Logger

	mu     sync.RWMutex
	snap   Snapshot
	subs   map[int]chan Snapshot
	nextID int
	closed bool

	// provider notifications are held until the startup redirect check ends
	started bool
	held    *models.Identity
	hasHeld bool

	unsubscribe func()
	cancel      context.CancelFunc
	ready       chan struct{}
	wg          sync.WaitGroup
}

// NewManager subscribes to provider and checks once, in the background, for
// a pending redirect sign-in. The state stays Unknown until that check is
// done, so a parked redirect is never reported as signed out first.
func NewManager(provider auth.Provider, logger *slog.Logger) *Manager {
	m := &Manager{
		provider: provider,
		logger:   logger,
		snap:     Snapshot{State: Unknown, Loading: true},
		subs:     map[int]chan Snapshot{},
		ready:    make(chan struct{}),
	}
	m.unsubscribe = provider.OnAuthStateChanged(m.apply)

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(m.ready)
		m.checkRedirect(ctx)
		m.start()
	}()
	return m
}

func (m *Manager) checkRedirect(ctx context.Context) {
	id, err := m.provider.RedirectResult(ctx)
	switch {
	case err != nil:
		m.logger.Error("Redirect sign-in failed", "error", err)
	case id != nil:
		m.logger.Info("Redirect sign-in completed", "uid", id.UID)
	default:
		m.logger.Debug("No pending redirect sign-in")
	}
}

// Ready is closed once the startup redirect check is done.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

func (m *Manager) start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	if m.hasHeld {
		m.setLocked(m.held)
		m.held, m.hasHeld = nil, false
	}
}

func (m *Manager) apply(id *models.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		m.held, m.hasHeld = id, true
		return
	}
	m.setLocked(id)
}

func (m *Manager) setLocked(id *models.Identity) {
	if m.closed {
		return
	}
	next := Snapshot{State: Unauthenticated}
	if id != nil {
		next = Snapshot{State: Authenticated, User: id}
	}
	m.snap = next
	for _, ch := range m.subs {
		offer(ch, next)
	}
}

// offer replaces whatever the subscriber has not read yet.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

// Current returns the latest snapshot.
func (m *Manager) Current() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// State is shorthand for Current().State.
func (m *Manager) State() State {
	return m.Current().State
}

// Subscribe returns a channel that holds the current snapshot right away and
// then the latest one after each change. Slow readers skip intermediate
// snapshots. The channel is closed by cancel or Close.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		close(ch)
		return ch, func() {}
	}
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	ch <- m.snap

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}
}

// SignIn tries the popup flow and falls back to the redirect flow on any
// popup failure. If the redirect flow fails too, the popup error is returned.
func (m *Manager) SignIn(ctx context.Context, creds auth.Credentials) (Outcome, error) {
	_, popupErr := m.provider.SignInWithPopup(ctx, creds)
	if popupErr == nil {
		return OutcomePopup, nil
	}
	m.logger.Warn("Popup sign-in failed, trying redirect", "error", popupErr)

	if err := m.provider.SignInWithRedirect(ctx, creds); err != nil {
		m.logger.Error("Redirect sign-in failed", "error", err)
		return OutcomeNone, popupErr
	}
	return OutcomeRedirect, nil
}

// CompleteRedirect finishes a redirect sign-in started by SignIn. It returns
// nil, nil when nothing was pending.
func (m *Manager) CompleteRedirect(ctx context.Context) (*models.Identity, error) {
	return m.provider.RedirectResult(ctx)
}

// SignOut never fails. Errors are logged and the session is left as the
// provider reports it.
func (m *Manager) SignOut(ctx context.Context) {
	if err := m.provider.SignOut(ctx); err != nil {
		m.logger.Error("Sign-out failed", "error", err)
	}
}

// Close detaches from the provider and closes every subscription.
func (m *Manager) Close() {
	m.unsubscribe()
	m.cancel()
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
}
