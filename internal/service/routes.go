package service

import (
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/portfolio/internal/middleware"
	"github.com/mmynk/portfolio/internal/portfolio"
	"github.com/mmynk/portfolio/internal/preferences"
	"github.com/mmynk/portfolio/internal/session"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	Portfolio      *portfolio.Service
	Sessions       *session.Manager
	Accounts       Registrar
	Preferences    *preferences.Store
	LoginPath      string
	AllowedOrigins []string
	Gatherer       prometheus.Gatherer // nil disables /metrics
	Metrics        *middleware.HTTPMetrics
	Logger         *slog.Logger
}

// NewRouter registers every route and wraps the mux in the standard
// middleware chain.
func NewRouter(d Deps) http.Handler {
	loginPath := d.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}
	guard := middleware.RequireSession(d.Sessions, loginPath)

	pages := NewPageHandler(d.Portfolio, d.Logger)
	authH := NewAuthHandler(d.Sessions, d.Accounts, loginPath, d.Logger)
	prefs := NewPreferencesHandler(d.Preferences, d.Logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if d.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("GET "+loginPath, authH.LoginForm)
	mux.HandleFunc("POST "+loginPath, authH.Login)
	mux.HandleFunc("POST /register", authH.Register)
	mux.HandleFunc("GET "+callbackPath, authH.Callback)
	mux.HandleFunc("POST /logout", authH.Logout)
	mux.HandleFunc("GET /session", authH.Session)
	mux.Handle("GET /session/events", NewEventsHandler(d.Sessions, d.AllowedOrigins, d.Logger))

	mux.HandleFunc("GET /preferences/banner", prefs.Banner)
	mux.HandleFunc("POST /preferences/banner/toggle", prefs.ToggleBanner)

	mux.Handle("GET /clients", guard(http.HandlerFunc(pages.Clients)))
	mux.Handle("GET /clients/{id}", guard(http.HandlerFunc(pages.Client)))
	mux.Handle("GET /albums/{id}", guard(http.HandlerFunc(pages.Album)))
	mux.Handle("GET /photos/{id}", guard(http.HandlerFunc(pages.Photo)))
	mux.Handle("POST /photos/{id}", guard(http.HandlerFunc(pages.UpdatePhoto)))

	photoPath, photoHandler := NewPhotoServiceHandler(
		NewPhotoService(d.Portfolio, d.Logger),
		connect.WithInterceptors(
			middleware.LoggingInterceptor(d.Logger),
			middleware.SessionInterceptor(d.Sessions),
		),
	)
	mux.Handle(photoPath, photoHandler)

	var h http.Handler = mux
	if d.Metrics != nil {
		h = d.Metrics.Wrap(h)
	}
	return middleware.Chain(h,
		middleware.RequestID,
		middleware.AccessLog(d.Logger),
		middleware.Recovery(d.Logger),
		middleware.CORS(d.AllowedOrigins),
	)
}
