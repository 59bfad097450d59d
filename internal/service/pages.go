package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/mmynk/portfolio/internal/httpx"
	"github.com/mmynk/portfolio/internal/portfolio"
	"github.com/mmynk/portfolio/internal/remote"
)

var errInvalidID = errors.New("id must be a positive integer")

// PageHandler serves the guarded page data: clients, albums and photos.
type PageHandler struct {
	portfolio *portfolio.Service
	logger    *slog.Logger
}

func NewPageHandler(svc *portfolio.Service, logger *slog.Logger) *PageHandler {
	return &PageHandler{portfolio: svc, logger: logger}
}

// Clients serves GET /clients?q=.
func (h *PageHandler) Clients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.portfolio.Clients(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, r, clients)
}

// Client serves GET /clients/{id}.
func (h *PageHandler) Client(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	detail, err := h.portfolio.ClientDetail(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, r, detail)
}

// Album serves GET /albums/{id}.
func (h *PageHandler) Album(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	detail, err := h.portfolio.AlbumDetail(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, r, detail)
}

// Photo serves GET /photos/{id}.
func (h *PageHandler) Photo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	photo, err := h.portfolio.GetPhoto(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, r, photo)
}

// UpdatePhoto serves POST /photos/{id} with a JSON or form "title".
func (h *PageHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var raw string
	if err := readFields(w, r, map[string]*string{"title": &raw}); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid request body", nil)
		return
	}

	title, err := portfolio.ValidateTitle(raw)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, httpx.CodeValidation, err.Error(),
			[]httpx.ErrorDetail{{Field: "title", Message: err.Error()}})
		return
	}

	photo, err := h.portfolio.UpdatePhoto(r.Context(), id, title)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, r, photo)
}

func (h *PageHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var rerr *remote.Error
	switch {
	case errors.Is(err, remote.ErrNotFound):
		httpx.Error(w, r, http.StatusNotFound, httpx.CodeNotFound, err.Error(), nil)
	case errors.As(err, &rerr):
		httpx.Error(w, r, http.StatusBadGateway, httpx.CodeUpstream, err.Error(), nil)
	default:
		h.logger.Error("Page load failed", "path", r.URL.Path, "error", err)
		httpx.Error(w, r, http.StatusInternalServerError, httpx.CodeInternal, "An internal error occurred", nil)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.Error(w, r, http.StatusBadRequest, httpx.CodeBadRequest, errInvalidID.Error(), nil)
		return 0, false
	}
	return id, true
}

// readFields fills the named string fields from a JSON object body or from
// a form post. Missing fields are left empty.
func readFields(w http.ResponseWriter, r *http.Request, fields map[string]*string) error {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var body map[string]any
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
			return err
		}
		for name, dst := range fields {
			if s, ok := body[name].(string); ok {
				*dst = s
			}
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return err
	}
	for name, dst := range fields {
		*dst = r.PostFormValue(name)
	}
	return nil
}
