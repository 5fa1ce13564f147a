package sessionstore

import (
	"context"
	"errors"

	"sentinel-lab/internal/domain/models"
)

// ErrUnavailable indicates the backing store could not be reached.
// An unknown session id is not an error: Load synthesizes a fresh
// session for it.
var ErrUnavailable = errors.New("session store unavailable")

// Store persists conversation sessions between turns
type Store interface {
	// Load returns the session for id, synthesizing a new one if the
	// id has never been seen.
	Load(ctx context.Context, id string) (*models.Session, error)

	// Save persists the session
	Save(ctx context.Context, session *models.Session) error

	// Count returns the number of stored sessions, -1 when the
	// backend cannot enumerate them cheaply.
	Count(ctx context.Context) int

	// Close releases backend resources
	Close() error
}
