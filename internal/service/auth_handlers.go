package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmynk/portfolio/internal/auth"
	"github.com/mmynk/portfolio/internal/httpx"
	"github.com/mmynk/portfolio/internal/models"
	"github.com/mmynk/portfolio/internal/session"
)

const (
	defaultNext  = "/clients"
	callbackPath = "/auth/callback"
)

// Registrar creates accounts. *auth.LocalProvider implements it.
type Registrar interface {
	Register(ctx context.Context, email, displayName, password string) (*models.Identity, error)
}

// AuthHandler serves sign-in, sign-out and the session endpoints.
type AuthHandler struct {
	sessions  *session.Manager
	accounts  Registrar
	loginPath string
	logger    *slog.Logger
}

func NewAuthHandler(sessions *session.Manager, accounts Registrar, loginPath string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions:  sessions,
		accounts:  accounts,
		loginPath: loginPath,
		logger:    logger,
	}
}

type loginPage struct {
	Session session.Snapshot `json:"session"`
	Fields  []string         `json:"fields"`
	Next    string           `json:"next"`
}

// LoginForm serves GET /login: what the form needs to render.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, r, loginPage{
		Session: h.sessions.Current(),
		Fields:  []string{"email", "password"},
		Next:    safeNext(r.URL.Query().Get("next")),
	})
}

// Login serves POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	var next string
	if err := readFields(w, r, map[string]*string{
		"email":    &creds.Email,
		"password": &creds.Password,
		"next":     &next,
	}); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid request body", nil)
		return
	}
	if next == "" {
		next = r.URL.Query().Get("next")
	}
	next = safeNext(next)

	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		httpx.Error(w, r, http.StatusBadRequest, httpx.CodeValidation, "email and password are required", nil)
		return
	}

	outcome, err := h.sessions.SignIn(r.Context(), creds)
	if err != nil {
		h.logger.Warn("Sign-in failed", "email", creds.Email, "error", err)
		httpx.Error(w, r, http.StatusUnauthorized, httpx.CodeUnauthorized, err.Error(), nil)
		return
	}

	target := next
	if outcome == session.OutcomeRedirect {
		target = callbackPath + "?" + url.Values{"next": {next}}.Encode()
	}
	h.logger.Info("Sign-in accepted", "outcome", outcome.String())
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Callback serves GET /auth/callback, completing a redirect sign-in.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))

	id, err := h.sessions.CompleteRedirect(r.Context())
	if err != nil {
		h.logger.Warn("Redirect sign-in failed", "error", err)
		httpx.Error(w, r, http.StatusUnauthorized, httpx.CodeUnauthorized, err.Error(), nil)
		return
	}
	if id == nil && h.sessions.State() != session.Authenticated {
		http.Redirect(w, r, h.loginPath+"?"+url.Values{"next": {next}}.Encode(), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout serves POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.SignOut(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Session serves GET /session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, r, h.sessions.Current())
}

// Register serves POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var email, name, password string
	if err := readFields(w, r, map[string]*string{
		"email":       &email,
		"displayName": &name,
		"password":    &password,
	}); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid request body", nil)
		return
	}

	id, err := h.accounts.Register(r.Context(), email, name, password)
	switch {
	case errors.Is(err, auth.ErrEmailExists):
		httpx.Error(w, r, http.StatusConflict, httpx.CodeConflict, err.Error(), nil)
	case errors.Is(err, auth.ErrWeakPassword):
		httpx.Error(w, r, http.StatusBadRequest, httpx.CodeValidation, err.Error(),
			[]httpx.ErrorDetail{{Field: "password", Message: err.Error()}})
	case errors.Is(err, auth.ErrMissingEmail):
		httpx.Error(w, r, http.StatusBadRequest, httpx.CodeValidation, err.Error(),
			[]httpx.ErrorDetail{{Field: "email", Message: err.Error()}})
	case err != nil:
		h.logger.Error("Registration failed", "email", email, "error", err)
		httpx.Error(w, r, http.StatusInternalServerError, httpx.CodeInternal, "An internal error occurred", nil)
	default:
		httpx.JSON(w, r, http.StatusCreated, id)
	}
}

// safeNext keeps redirects on this host.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultNext
	}
	return next
}
