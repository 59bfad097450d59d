// Package preferences holds small UI flags that survive restarts.
package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmynk/portfolio/internal/storage"
)

// BannerKey is the KV key of the banner flag.
const BannerKey = "banner-storage"

type bannerState struct {
	ShowBanner bool `json:"showBanner"`
}

type Store struct {
	kv     storage.KV
	logger *slog.Logger

	mu sync.Mutex // serializes toggles
}

func New(kv storage.KV, logger *slog.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// Banner reports whether the banner is visible. Defaults to true.
func (s *Store) Banner(ctx context.Context) (bool, error) {
	state, err := s.load(ctx)
	if err != nil {
		return true, err
	}
	return state.ShowBanner, nil
}

// ToggleBanner flips the flag and returns the new value.
func (s *Store) ToggleBanner(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	state.ShowBanner = !state.ShowBanner

	data, err := json.Marshal(state)
	if err != nil {
		return false, err
	}
	if err := s.kv.Put(ctx, BannerKey, data); err != nil {
		return false, fmt.Errorf("write banner flag: %w", err)
	}
	return state.ShowBanner, nil
}

func (s *Store) load(ctx context.Context) (bannerState, error) {
	def := bannerState{ShowBanner: true}

	data, err := s.kv.Get(ctx, BannerKey)
	if errors.Is(err, storage.ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("read banner flag: %w", err)
	}

	state := def
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("Banner flag unreadable, using default", "error", err)
		return def, nil
	}
	return state, nil
}
