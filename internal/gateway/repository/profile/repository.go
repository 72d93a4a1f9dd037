package profile

import (
	"context"
	"errors"

	"animaldex/internal/gateway/entity"
)

var (
	// ErrNotFound means no profile exists for the handle.
	ErrNotFound = errors.New("profile not found")
	// ErrDuplicate means the handle is already registered.
	ErrDuplicate = errors.New("profile handle already exists")
)

// Store is the persistence boundary for discovery ledgers.
//
// Update must apply the mutation atomically per profile: the read, the
// callback and the commit are serialized against concurrent updates of
// the same handle, and nothing is persisted if the context is canceled
// before commit. Distinct handles never contend with each other.
type Store interface {
	Create(ctx context.Context, p entity.Profile) error
	Get(ctx context.Context, handle entity.Handle) (entity.Profile, error)
	Update(ctx context.Context, handle entity.Handle, mutate func(*entity.Profile)) (entity.Profile, error)
	Ping(ctx context.Context) error
}
