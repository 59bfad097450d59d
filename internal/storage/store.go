// Package storage provides abstractions for the portfolio's local persistence.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/portfolio/internal/models"
)

// ErrNotFound is returned when a key or account does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique value (an account email) is taken.
var ErrConflict = errors.New("already exists")

// KV is a flat key-value namespace, the server-side stand-in for browser
// local storage. Values are opaque bytes, usually JSON.
type KV interface {
	// Get returns ErrNotFound when key was never written or was deleted.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the whole value stored at key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error
}

// Store is implemented by every backend (SQLite, PostgreSQL, memory).
// Swapping backends does not change the service layer.
type Store interface {
	KV

	// CreateAccount persists a new identity-provider account.
	// Returns ErrConflict when the email is already registered.
	CreateAccount(ctx context.Context, account *models.Account) error

	// GetAccountByEmail returns ErrNotFound when no account matches.
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)

	// GetAccountByID returns ErrNotFound when no account matches.
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)

	// Close releases any resources held by the store.
	Close() error
}
