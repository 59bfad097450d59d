// Package app builds the object graph shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/portfolio/internal/auth"
	"github.com/mmynk/portfolio/internal/config"
	"github.com/mmynk/portfolio/internal/overrides"
	"github.com/mmynk/portfolio/internal/portfolio"
	"github.com/mmynk/portfolio/internal/preferences"
	"github.com/mmynk/portfolio/internal/remote"
	"github.com/mmynk/portfolio/internal/session"
	"github.com/mmynk/portfolio/internal/storage"
	"github.com/mmynk/portfolio/internal/storage/memory"
	"github.com/mmynk/portfolio/internal/storage/postgres"
	"github.com/mmynk/portfolio/internal/storage/sqlite"
	"github.com/mmynk/portfolio/internal/telemetry"
)

// App owns every long-lived component. Close releases them in reverse
// construction order.
type App struct {
	Store       storage.Store
	Telemetry   *telemetry.Dispatcher
	Remote      *remote.Client
	Overrides   *overrides.Store
	Portfolio   *portfolio.Service
	Preferences *preferences.Store
	Provider    *auth.LocalProvider
	Sessions    *session.Manager
}

// OpenStore picks the backend named by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("Using in-memory store; nothing survives a restart")
		return memory.New(), nil
	case "postgres":
		store, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.APITimeout)
		if err != nil {
			return nil, err
		}
		logger.Info("Storage initialized", "driver", "postgres")
		return store, nil
	case "sqlite", "":
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		logger.Info("Storage initialized", "driver", "sqlite", "database", cfg.DBPath)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// New wires everything. reg receives the telemetry metrics; it may be nil.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	collectors := []telemetry.Collector{telemetry.LogCollector{Logger: logger}}
	if reg != nil {
		collectors = append(collectors, telemetry.NewMetricsCollector(reg))
	}
	dispatcher := telemetry.NewDispatcher(cfg.TelemetryBuffer, logger, reg, collectors...)

	client := remote.NewClient(cfg.APIBaseURL, cfg.APITimeout, dispatcher, remote.WithRateLimit(cfg.APIRequestsPerSecond))
	overrideStore := overrides.New(store, logger)

	provider, err := auth.NewLocalProvider(ctx,
		auth.NewPasswordAuthenticator(store),
		auth.NewJWTManager(cfg.AuthSecret, cfg.AuthTokenTTL),
		store, cfg.AuthPopup, logger)
	if err != nil {
		overrideStore.Close()
		dispatcher.Close()
		store.Close()
		return nil, fmt.Errorf("start identity provider: %w", err)
	}

	return &App{
		Store:       store,
		Telemetry:   dispatcher,
		Remote:      client,
		Overrides:   overrideStore,
		Portfolio:   portfolio.NewService(client, overrideStore, dispatcher, logger),
		Preferences: preferences.New(store, logger),
		Provider:    provider,
		Sessions:    session.NewManager(provider, logger),
	}, nil
}

func (a *App) Close() error {
	a.Sessions.Close()
	a.Overrides.Close()
	a.Telemetry.Close()
	return a.Store.Close()
}
