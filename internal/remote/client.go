// Package remote is a typed client for the JSONPlaceholder resource API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/mmynk/portfolio/internal/models"
	"github.com/mmynk/portfolio/internal/telemetry"
)

// ErrNotFound matches errors for resources the API answered 404 for.
var ErrNotFound = errors.New("resource not found")

// Error is returned by every Client method. Its message names the resource
// and id; the underlying cause is available through errors.Unwrap.
type Error struct {
	Op       string // fetch or update
	Resource string
	ID       int // zero for collection calls
	Status   int // zero when no response arrived
	Message  string
	Err      error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	reporter   telemetry.Reporter
}

// Option tweaks a Client.
type Option func(*Client)

// WithRateLimit caps outgoing requests per second. rps <= 0 means no cap.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithHTTPClient replaces the transport. Its Timeout is overwritten.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a client for baseURL with a fixed per-request timeout.
func NewClient(baseURL string, timeout time.Duration, reporter telemetry.Reporter, opts ...Option) *Client {
	if reporter == nil {
		reporter = telemetry.Nop{}
	}
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		reporter:   reporter,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient.Timeout = timeout
	return c
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := c.do(ctx, http.MethodGet, "/users", nil, &users,
		call{op: "fetch", resource: "users", message: "failed to fetch users"})
	return users, err
}

func (c *Client) GetUser(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodGet, "/users/"+strconv.Itoa(id), nil, &user,
		call{op: "fetch", resource: "user", id: id, message: fmt.Sprintf("failed to fetch user %d", id)})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListAlbums(ctx context.Context) ([]models.Album, error) {
	var albums []models.Album
	err := c.do(ctx, http.MethodGet, "/albums", nil, &albums,
		call{op: "fetch", resource: "albums", message: "failed to fetch albums"})
	return albums, err
}

func (c *Client) ListUserAlbums(ctx context.Context, userID int) ([]models.Album, error) {
	var albums []models.Album
	err := c.do(ctx, http.MethodGet, "/users/"+strconv.Itoa(userID)+"/albums", nil, &albums,
		call{op: "fetch", resource: "user_albums", id: userID, message: fmt.Sprintf("failed to fetch albums for user %d", userID)})
	return albums, err
}

func (c *Client) GetAlbum(ctx context.Context, id int) (*models.Album, error) {
	var album models.Album
	err := c.do(ctx, http.MethodGet, "/albums/"+strconv.Itoa(id), nil, &album,
		call{op: "fetch", resource: "album", id: id, message: fmt.Sprintf("failed to fetch album %d", id)})
	if err != nil {
		return nil, err
	}
	return &album, nil
}

func (c *Client) ListPhotos(ctx context.Context) ([]models.Photo, error) {
	var photos []models.Photo
	err := c.do(ctx, http.MethodGet, "/photos", nil, &photos,
		call{op: "fetch", resource: "photos", message: "failed to fetch photos"})
	return photos, err
}

func (c *Client) ListAlbumPhotos(ctx context.Context, albumID int) ([]models.Photo, error) {
	var photos []models.Photo
	err := c.do(ctx, http.MethodGet, "/albums/"+strconv.Itoa(albumID)+"/photos", nil, &photos,
		call{op: "fetch", resource: "album_photos", id: albumID, message: fmt.Sprintf("failed to fetch photos for album %d", albumID)})
	return photos, err
}

func (c *Client) GetPhoto(ctx context.Context, id int) (*models.Photo, error) {
	var photo models.Photo
	err := c.do(ctx, http.MethodGet, "/photos/"+strconv.Itoa(id), nil, &photo,
		call{op: "fetch", resource: "photo", id: id, message: fmt.Sprintf("failed to fetch photo %d", id)})
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// UpdatePhotoTitle sends a partial update carrying only the title. The API
// is a test double and does not persist it; callers must not trust the echo.
func (c *Client) UpdatePhotoTitle(ctx context.Context, id int, title string) (*models.Photo, error) {
	body := struct {
		Title string `json:"title"`
	}{Title: title}

	var photo models.Photo
	err := c.do(ctx, http.MethodPatch, "/photos/"+strconv.Itoa(id), body, &photo,
		call{op: "update", resource: "photo", id: id, message: fmt.Sprintf("failed to update photo %d", id)})
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

type call struct {
	op       string
	resource string
	id       int
	message  string
}

func (c *Client) do(ctx context.Context, method, path string, body, target any, info call) error {
	status, err := c.roundTrip(ctx, method, path, body, target)
	if err == nil {
		return nil
	}

	rerr := &Error{
		Op:       info.op,
		Resource: info.resource,
		ID:       info.id,
		Status:   status,
		Message:  info.message,
		Err:      err,
	}
	tags := map[string]string{
		"op":       info.op,
		"resource": info.resource,
		"status":   strconv.Itoa(status),
	}
	if info.id != 0 {
		tags["id"] = strconv.Itoa(info.id)
	}
	c.reporter.Report(rerr, tags)
	return rerr
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, target any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
