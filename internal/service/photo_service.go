package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/portfolio/internal/middleware"
	"github.com/mmynk/portfolio/internal/models"
	"github.com/mmynk/portfolio/internal/portfolio"
	"github.com/mmynk/portfolio/internal/remote"
)

const PhotoServiceName = "portfolio.v1.PhotoService"

const (
	PhotoServiceGetPhotoProcedure         = "/" + PhotoServiceName + "/GetPhoto"
	PhotoServiceListAlbumPhotosProcedure  = "/" + PhotoServiceName + "/ListAlbumPhotos"
	PhotoServiceUpdatePhotoTitleProcedure = "/" + PhotoServiceName + "/UpdatePhotoTitle"
)

type GetPhotoRequest struct {
	ID int `json:"id"`
}

type GetPhotoResponse struct {
	Photo *models.Photo `json:"photo"`
}

type ListAlbumPhotosRequest struct {
	AlbumID int `json:"albumId"`
}

type ListAlbumPhotosResponse struct {
	Photos []models.Photo `json:"photos"`
}

type UpdatePhotoTitleRequest struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

type UpdatePhotoTitleResponse struct {
	Photo *models.Photo `json:"photo"`
}

// PhotoService exposes the merge layer's photo operations over Connect.
type PhotoService struct {
	portfolio *portfolio.Service
	logger    *slog.Logger
}

func NewPhotoService(svc *portfolio.Service, logger *slog.Logger) *PhotoService {
	return &PhotoService{portfolio: svc, logger: logger}
}

// GetPhoto returns one photo with its local title applied.
func (s *PhotoService) GetPhoto(ctx context.Context, req *connect.Request[GetPhotoRequest]) (*connect.Response[GetPhotoResponse], error) {
	if req.Msg.ID <= 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errInvalidID)
	}
	photo, err := s.portfolio.GetPhoto(ctx, req.Msg.ID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&GetPhotoResponse{Photo: photo}), nil
}

// ListAlbumPhotos returns an album's photos in upstream order.
func (s *PhotoService) ListAlbumPhotos(ctx context.Context, req *connect.Request[ListAlbumPhotosRequest]) (*connect.Response[ListAlbumPhotosResponse], error) {
	if req.Msg.AlbumID <= 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errInvalidID)
	}
	photos, err := s.portfolio.GetAlbumPhotos(ctx, req.Msg.AlbumID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&ListAlbumPhotosResponse{Photos: photos}), nil
}

// UpdatePhotoTitle validates and stores a new title.
func (s *PhotoService) UpdatePhotoTitle(ctx context.Context, req *connect.Request[UpdatePhotoTitleRequest]) (*connect.Response[UpdatePhotoTitleResponse], error) {
	if req.Msg.ID <= 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errInvalidID)
	}
	title, err := portfolio.ValidateTitle(req.Msg.Title)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	photo, err := s.portfolio.UpdatePhoto(ctx, req.Msg.ID, title)
	if err != nil {
		return nil, connectError(err)
	}
	s.logger.Info("Photo renamed", "photo_id", req.Msg.ID, "user_id", middleware.GetUserID(ctx))
	return connect.NewResponse(&UpdatePhotoTitleResponse{Photo: photo}), nil
}

func connectError(err error) error {
	var rerr *remote.Error
	switch {
	case errors.Is(err, remote.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.As(err, &rerr):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// NewPhotoServiceHandler builds the HTTP handler for every PhotoService
// procedure. It returns the path to mount it on.
func NewPhotoServiceHandler(svc *PhotoService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)

	getPhoto := connect.NewUnaryHandler(PhotoServiceGetPhotoProcedure, svc.GetPhoto, opts...)
	listAlbumPhotos := connect.NewUnaryHandler(PhotoServiceListAlbumPhotosProcedure, svc.ListAlbumPhotos, opts...)
	updatePhotoTitle := connect.NewUnaryHandler(PhotoServiceUpdatePhotoTitleProcedure, svc.UpdatePhotoTitle, opts...)

	return "/" + PhotoServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PhotoServiceGetPhotoProcedure:
			getPhoto.ServeHTTP(w, r)
		case PhotoServiceListAlbumPhotosProcedure:
			listAlbumPhotos.ServeHTTP(w, r)
		case PhotoServiceUpdatePhotoTitleProcedure:
			updatePhotoTitle.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
