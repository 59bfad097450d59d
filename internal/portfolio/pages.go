package portfolio

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/portfolio/internal/models"
)

var avatars = []string{"happy.png", "playful.png", "wink.png"}

// AvatarFor picks a stable avatar path for a user id.
func AvatarFor(userID string) string {
	sum := 0
	for _, r := range userID {
		sum += int(r)
	}
	return "/" + avatars[sum%len(avatars)]
}

// ClientSummary is one row of the clients page.
type ClientSummary struct {
	User       models.User `json:"user"`
	AlbumCount int         `json:"albumCount"`
	Avatar     string      `json:"avatar"`
}

type ClientDetail struct {
	User   *models.User   `json:"user"`
	Avatar string         `json:"avatar"`
	Albums []models.Album `json:"albums"`
}

type AlbumDetail struct {
	Album  *models.Album  `json:"album"`
	Photos []models.Photo `json:"photos"`
}

// Clients joins users with their album counts, keeping users whose name,
// username or email contains filter (case-insensitive). An empty filter keeps
// everyone.
func (s *Service) Clients(ctx context.Context, filter string) ([]ClientSummary, error) {
	var (
		users  []models.User
		albums []models.Album
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.source.ListUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		albums, err = s.source.ListAlbums(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := make(map[int]int, len(users))
	for _, a := range albums {
		counts[a.UserID]++
	}

	needle := strings.ToLower(strings.TrimSpace(filter))
	out := make([]ClientSummary, 0, len(users))
	for _, u := range users {
		if needle != "" && !matches(u, needle) {
			continue
		}
		out = append(out, ClientSummary{
			User:       u,
			AlbumCount: counts[u.ID],
			Avatar:     AvatarFor(strconv.Itoa(u.ID)),
		})
	}
	return out, nil
}

func matches(u models.User, needle string) bool {
	for _, field := range []string{u.Name, u.Username, u.Email} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// ClientDetail loads a user and the user's albums together.
func (s *Service) ClientDetail(ctx context.Context, userID int) (*ClientDetail, error) {
	detail := &ClientDetail{Avatar: AvatarFor(strconv.Itoa(userID))}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detail.User, err = s.source.GetUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Albums, err = s.source.ListUserAlbums(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

// AlbumDetail loads an album and its merged photos together.
func (s *Service) AlbumDetail(ctx context.Context, albumID int) (*AlbumDetail, error) {
	detail := &AlbumDetail{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detail.Album, err = s.source.GetAlbum(gctx, albumID)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Photos, err = s.GetAlbumPhotos(gctx, albumID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}
