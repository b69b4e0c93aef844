// Package store provides session persistence keyed by session id.
package store

import (
	"context"
	"errors"

	"github.com/brainstorm-platform/idea-engine/internal/models"
)

// ErrNotFound is returned when no session exists for an id. Deleted sessions
// are indistinguishable from never-created ones.
var ErrNotFound = errors.New("session not found")

// SessionStore is the persistence collaborator. Implementations must provide
// atomic create/read/update/delete per id; the engine does not serialize
// concurrent operations on the same session.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Update(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error
}
