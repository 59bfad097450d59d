package service

import (
	"log/slog"
	"net/http"

	"github.com/mmynk/portfolio/internal/httpx"
	"github.com/mmynk/portfolio/internal/preferences"
)

type bannerResponse struct {
	ShowBanner bool `json:"showBanner"`
}

// PreferencesHandler serves the banner flag.
type PreferencesHandler struct {
	prefs  *preferences.Store
	logger *slog.Logger
}

func NewPreferencesHandler(prefs *preferences.Store, logger *slog.Logger) *PreferencesHandler {
	return &PreferencesHandler{prefs: prefs, logger: logger}
}

func (h *PreferencesHandler) Banner(w http.ResponseWriter, r *http.Request) {
	show, err := h.prefs.Banner(r.Context())
	if err != nil {
		h.logger.Error("Failed to read banner flag", "error", err)
		httpx.Error(w, r, http.StatusInternalServerError, httpx.CodeInternal, "An internal error occurred", nil)
		return
	}
	httpx.OK(w, r, bannerResponse{ShowBanner: show})
}

func (h *PreferencesHandler) ToggleBanner(w http.ResponseWriter, r *http.Request) {
	show, err := h.prefs.ToggleBanner(r.Context())
	if err != nil {
		h.logger.Error("Failed to toggle banner flag", "error", err)
		httpx.Error(w, r, http.StatusInternalServerError, httpx.CodeInternal, "An internal error occurred", nil)
		return
	}
	httpx.OK(w, r, bannerResponse{ShowBanner: show})
}
