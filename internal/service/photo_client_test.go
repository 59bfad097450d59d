package service

import (
	"context"

	"connectrpc.com/connect"
)

// photoServiceClient calls PhotoService through the JSON codec.
type photoServiceClient struct {
	getPhoto         *connect.Client[GetPhotoRequest, GetPhotoResponse]
	listAlbumPhotos  *connect.Client[ListAlbumPhotosRequest, ListAlbumPhotosResponse]
	updatePhotoTitle *connect.Client[UpdatePhotoTitleRequest, UpdatePhotoTitleResponse]
}

func newPhotoServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *photoServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return &photoServiceClient{
		getPhoto:         connect.NewClient[GetPhotoRequest, GetPhotoResponse](httpClient, baseURL+PhotoServiceGetPhotoProcedure, opts...),
		listAlbumPhotos:  connect.NewClient[ListAlbumPhotosRequest, ListAlbumPhotosResponse](httpClient, baseURL+PhotoServiceListAlbumPhotosProcedure, opts...),
		updatePhotoTitle: connect.NewClient[UpdatePhotoTitleRequest, UpdatePhotoTitleResponse](httpClient, baseURL+PhotoServiceUpdatePhotoTitleProcedure, opts...),
	}
}

func (c *photoServiceClient) GetPhoto(ctx context.Context, req *connect.Request[GetPhotoRequest]) (*connect.Response[GetPhotoResponse], error) {
	return c.getPhoto.CallUnary(ctx, req)
}

func (c *photoServiceClient) ListAlbumPhotos(ctx context.Context, req *connect.Request[ListAlbumPhotosRequest]) (*connect.Response[ListAlbumPhotosResponse], error) {
	return c.listAlbumPhotos.CallUnary(ctx, req)
}

func (c *photoServiceClient) UpdatePhotoTitle(ctx context.Context, req *connect.Request[UpdatePhotoTitleRequest]) (*connect.Response[UpdatePhotoTitleResponse], error) {
	return c.updatePhotoTitle.CallUnary(ctx, req)
}
