package storage

import (
	"context"
	"errors"

	"github.com/nad125/pharmabot/types"
)

// ErrSessionNotFound is returned when a session id has no stored session.
var ErrSessionNotFound = errors.New("session not found")

// Storage persists conversation sessions between turns. The domain data store
// (inventory, orders) is process-lifetime in-memory state and is not
// persisted here.
type Storage interface {
	// SaveSession saves a session snapshot.
	SaveSession(ctx context.Context, session types.Session) error

	// GetSession retrieves a session by id.
	GetSession(ctx context.Context, id uint64) (types.Session, error)

	// DeleteSession removes a session. Deleting an unknown id is not an error.
	DeleteSession(ctx context.Context, id uint64) error
}

// withContext runs fn unless ctx is already done.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	default:
		return fn()
	}
}

// withContextError is withContext for operations that only return an error.
func withContextError(ctx context.Context, fn func() error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fn()
	}
}
