package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"connectrpc.com/connect"

	"github.com/mmynk/portfolio/internal/httpx"
	"github.com/mmynk/portfolio/internal/session"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the signed-in user's uid.
	UserIDKey contextKey = "user_id"
	// EmailKey is the context key for storing the signed-in user's email.
	EmailKey contextKey = "email"
)

var (
	errSessionLoading = errors.New("session is still loading")
	errSignedOut      = errors.New("sign in required")
)

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetEmail extracts the user email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// Decision is what a guarded page does for a given session state.
type Decision int

const (
	Placeholder Decision = iota
	Redirect
	Render
)

func (d Decision) String() string {
	switch d {
	case Redirect:
		return "redirect"
	case Render:
		return "render"
	default:
		return "placeholder"
	}
}

// Decide maps a session state onto a guard decision.
func Decide(state session.State) Decision {
	switch state {
	case session.Authenticated:
		return Render
	case session.Unauthenticated:
		return Redirect
	default:
		return Placeholder
	}
}

// SessionSource is satisfied by *session.Manager.
type SessionSource interface {
	Current() session.Snapshot
}

func withIdentity(ctx context.Context, snap session.Snapshot) context.Context {
	if snap.User == nil {
		return ctx
	}
	ctx = context.WithValue(ctx, UserIDKey, snap.User.UID)
	return context.WithValue(ctx, EmailKey, snap.User.Email)
}

// RequireSession guards page routes. While the session is loading it answers
// 503 with Retry-After; when signed out it redirects to loginPath, carrying
// the original URI in "next". This is a UX guard; data endpoints are not
// otherwise protected.
func RequireSession(source SessionSource, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := source.Current()
			switch Decide(snap.State) {
			case Render:
				next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), snap)))
			case Redirect:
				target := loginPath + "?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
				http.Redirect(w, r, target, http.StatusSeeOther)
			default:
				w.Header().Set("Retry-After", "1")
				httpx.Error(w, r, http.StatusServiceUnavailable, httpx.CodeSessionLoading, errSessionLoading.Error(), nil)
			}
		})
	}
}

// SessionInterceptor is RequireSession for Connect procedures.
func SessionInterceptor(source SessionSource) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			snap := source.Current()
			switch Decide(snap.State) {
			case Render:
				return next(withIdentity(ctx, snap), req)
			case Redirect:
				return nil, connect.NewError(connect.CodeUnauthenticated, errSignedOut)
			default:
				return nil, connect.NewError(connect.CodeUnavailable, errSessionLoading)
			}
		}
	}
}
