// Package remotetest serves a small in-memory copy of the JSONPlaceholder API
// for tests.
package remotetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/mmynk/portfolio/internal/models"
)

// Server behaves like the public API: writes are echoed but never stored.
type Server struct {
	*httptest.Server

	Users  []models.User
	Albums []models.Album
	Photos []models.Photo

	mu       sync.Mutex
	failures map[string]int // "METHOD path" -> status
	patches  []PatchCall
}

// PatchCall records one PATCH /photos/{id}.
type PatchCall struct {
	ID   int
	Body map[string]any
}

// NewServer seeds 10 users, 2 albums per user and 3 photos per album.
// Users 1 and 2 are named John Doe and Jane Doe.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{failures: map[string]int{}}
	s.seed()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) { s.write(w, s.Users) })
	mux.HandleFunc("GET /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		for _, u := range s.Users {
			if u.ID == id {
				s.write(w, u)
				return
			}
		}
		notFound(w)
	})
	mux.HandleFunc("GET /users/{id}/albums", func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		out := []models.Album{}
		for _, a := range s.Albums {
			if a.UserID == id {
				out = append(out, a)
			}
		}
		s.write(w, out)
	})
	mux.HandleFunc("GET /albums", func(w http.ResponseWriter, r *http.Request) { s.write(w, s.Albums) })
	mux.HandleFunc("GET /albums/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		for _, a := range s.Albums {
			if a.ID == id {
				s.write(w, a)
				return
			}
		}
		notFound(w)
	})
	mux.HandleFunc("GET /albums/{id}/photos", func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		out := []models.Photo{}
		for _, p := range s.Photos {
			if p.AlbumID == id {
				out = append(out, p)
			}
		}
		s.write(w, out)
	})
	mux.HandleFunc("GET /photos", func(w http.ResponseWriter, r *http.Request) { s.write(w, s.Photos) })
	mux.HandleFunc("GET /photos/{id}", func(w http.ResponseWriter, r *http.Request) {
		if p, ok := s.photo(pathID(r)); ok {
			s.write(w, p)
			return
		}
		notFound(w)
	})
	mux.HandleFunc("PATCH /photos/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.patches = append(s.patches, PatchCall{ID: id, Body: body})
		s.mu.Unlock()

		p, ok := s.photo(id)
		if !ok {
			notFound(w)
			return
		}
		if title, ok := body["title"].(string); ok {
			p.Title = title
		}
		s.write(w, p)
	})

	s.Server = httptest.NewServer(s.failing(mux))
	t.Cleanup(s.Close)
	return s
}

// Fail makes "METHOD path" answer with status until cleared with status 0.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	if status == 0 {
		delete(s.failures, key)
		return
	}
	s.failures[key] = status
}

// Patches returns every PATCH received so far.
func (s *Server) Patches() []PatchCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PatchCall(nil), s.patches...)
}

func (s *Server) failing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status, ok := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if ok {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) photo(id int) (models.Photo, bool) {
	for _, p := range s.Photos {
		if p.ID == id {
			return p, true
		}
	}
	return models.Photo{}, false
}

func (s *Server) seed() {
	names := []struct{ name, username string }{
		{"John Doe", "johndoe"},
		{"Jane Doe", "jdoe"},
		{"Leanne Graham", "Bret"},
		{"Ervin Howell", "Antonette"},
		{"Clementine Bauch", "Samantha"},
		{"Patricia Lebsack", "Karianne"},
		{"Chelsey Dietrich", "Kamren"},
		{"Dennis Schulist", "Leopoldo_Corkery"},
		{"Kurtis Weissnat", "Elwyn.Skiles"},
		{"Glenna Reichert", "Delphine"},
	}
	albumID, photoID := 0, 0
	for i, n := range names {
		userID := i + 1
		s.Users = append(s.Users, models.User{
			ID:       userID,
			Name:     n.name,
			Username: n.username,
			Email:    fmt.Sprintf("%s@example.com", n.username),
			Address: models.Address{
				Street: "Kulas Light", Suite: "Apt. 556", City: "Gwenborough", Zipcode: "92998-3874",
				Geo: models.Geo{Lat: "-37.3159", Lng: "81.1496"},
			},
			Phone:   "1-770-736-8031",
			Website: "hildegard.org",
			Company: models.Company{Name: "Romaguera-Crona", CatchPhrase: "Multi-layered client-server neural-net", BS: "harness real-time e-markets"},
		})
		for a := 0; a < 2; a++ {
			albumID++
			s.Albums = append(s.Albums, models.Album{ID: albumID, UserID: userID, Title: fmt.Sprintf("album %d", albumID)})
			for p := 0; p < 3; p++ {
				photoID++
				s.Photos = append(s.Photos, models.Photo{
					ID:           photoID,
					AlbumID:      albumID,
					Title:        fmt.Sprintf("photo %d", photoID),
					URL:          fmt.Sprintf("https://via.placeholder.com/600/%06x", photoID),
					ThumbnailURL: fmt.Sprintf("https://via.placeholder.com/150/%06x", photoID),
				})
			}
		}
	}
}

func (s *Server) write(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("{}"))
}

func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(r.PathValue("id"))
	return id
}
