// Package portfolio combines remote resources with locally stored photo
// overrides. Every Photo it returns carries the override title when one
// exists for its id; users and albums pass through untouched.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mmynk/portfolio/internal/models"
	"github.com/mmynk/portfolio/internal/overrides"
	"github.com/mmynk/portfolio/internal/telemetry"
)

// ErrEmptyTitle is returned by ValidateTitle for blank titles.
var ErrEmptyTitle = errors.New("title must not be empty")

// Source is the remote side of the merge. *remote.Client implements it.
type Source interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
	ListAlbums(ctx context.Context) ([]models.Album, error)
	ListUserAlbums(ctx context.Context, userID int) ([]models.Album, error)
	GetAlbum(ctx context.Context, id int) (*models.Album, error)
	ListPhotos(ctx context.Context) ([]models.Photo, error)
	ListAlbumPhotos(ctx context.Context, albumID int) ([]models.Photo, error)
	GetPhoto(ctx context.Context, id int) (*models.Photo, error)
	UpdatePhotoTitle(ctx context.Context, id int, title string) (*models.Photo, error)
}

// Service is the merge layer.
type Service struct {
	source    Source
	overrides *overrides.Store
	reporter  telemetry.Reporter
	logger    *slog.Logger
}

// NewService wires the merge layer. A nil reporter discards reports.
func NewService(source Source, store *overrides.Store, reporter telemetry.Reporter, logger *slog.Logger) *Service {
	if reporter == nil {
		reporter = telemetry.Nop{}
	}
	return &Service{
		source:    source,
		overrides: store,
		reporter:  reporter,
		logger:    logger,
	}
}

// ValidateTitle trims title and rejects it when nothing is left.
func ValidateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", ErrEmptyTitle
	}
	return trimmed, nil
}

// GetPhoto fetches a photo and overlays its override title.
func (s *Service) GetPhoto(ctx context.Context, id int) (*models.Photo, error) {
	photo, err := s.source.GetPhoto(ctx, id)
	if err != nil {
		return nil, err
	}
	o, ok, err := s.overrides.Get(ctx, id)
	if err != nil {
		return nil, s.localFailure("read", id, err)
	}
	if ok {
		merged := o.Apply(*photo)
		return &merged, nil
	}
	return photo, nil
}

// GetAlbumPhotos lists an album's photos in remote order, overlaid from one
// read of the override store.
func (s *Service) GetAlbumPhotos(ctx context.Context, albumID int) ([]models.Photo, error) {
	photos, err := s.source.ListAlbumPhotos(ctx, albumID)
	if err != nil {
		return nil, err
	}
	return s.overlay(ctx, photos)
}

// Photos lists every photo, overlaid.
func (s *Service) Photos(ctx context.Context) ([]models.Photo, error) {
	photos, err := s.source.ListPhotos(ctx)
	if err != nil {
		return nil, err
	}
	return s.overlay(ctx, photos)
}

// UpdatePhoto sends the new title upstream and, once that succeeds, records
// it locally. The upstream echo is never trusted for the title: the returned
// photo always carries title. No validation happens here; see ValidateTitle.
func (s *Service) UpdatePhoto(ctx context.Context, id int, title string) (*models.Photo, error) {
	echo, err := s.source.UpdatePhotoTitle(ctx, id, title)
	if err != nil {
		return nil, err
	}

	record, err := s.overrides.Put(ctx, id, models.TitleOverride(*echo, title))
	if err != nil {
		return nil, s.localFailure("write", id, err)
	}
	s.logger.Info("Photo title overridden", "photo_id", id, "title", title)

	merged := record.Apply(*echo)
	return &merged, nil
}

func (s *Service) Users(ctx context.Context) ([]models.User, error) {
	return s.source.ListUsers(ctx)
}

func (s *Service) User(ctx context.Context, id int) (*models.User, error) {
	return s.source.GetUser(ctx, id)
}

func (s *Service) Albums(ctx context.Context) ([]models.Album, error) {
	return s.source.ListAlbums(ctx)
}

func (s *Service) UserAlbums(ctx context.Context, userID int) ([]models.Album, error) {
	return s.source.ListUserAlbums(ctx, userID)
}

func (s *Service) Album(ctx context.Context, id int) (*models.Album, error) {
	return s.source.GetAlbum(ctx, id)
}

func (s *Service) overlay(ctx context.Context, photos []models.Photo) ([]models.Photo, error) {
	snap, err := s.overrides.All(ctx)
	if err != nil {
		return nil, s.localFailure("read", 0, err)
	}
	out := make([]models.Photo, len(photos))
	for i, p := range photos {
		out[i] = snap.Apply(p)
	}
	return out, nil
}

func (s *Service) localFailure(op string, id int, err error) error {
	tags := map[string]string{"op": op, "resource": "override"}
	if id != 0 {
		tags["id"] = strconv.Itoa(id)
	}
	s.reporter.Report(err, tags)
	s.logger.Error("Override store failed", "op", op, "photo_id", id, "error", err)
	return fmt.Errorf("override store %s: %w", op, err)
}
