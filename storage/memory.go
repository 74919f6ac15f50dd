package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/nad125/pharmabot/types"
)

// MemoryStorage is an in-memory implementation of Storage, the default when
// no external backend is configured.
type MemoryStorage struct {
	sessions map[uint64]types.Session
	mu       sync.RWMutex
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[uint64]types.Session),
	}
}

// SaveSession saves a session snapshot to memory.
func (s *MemoryStorage) SaveSession(ctx context.Context, session types.Session) error {
	return withContextError(ctx, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.sessions[session.ID] = session
		return nil
	})
}

// GetSession retrieves a session from memory.
func (s *MemoryStorage) GetSession(ctx context.Context, id uint64) (types.Session, error) {
	return withContext(ctx, func() (types.Session, error) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		session, ok := s.sessions[id]
		if !ok {
			return types.Session{}, fmt.Errorf("%w: id=%d", ErrSessionNotFound, id)
		}
		return session, nil
	})
}

// DeleteSession removes a session from memory.
func (s *MemoryStorage) DeleteSession(ctx context.Context, id uint64) error {
	return withContextError(ctx, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.sessions, id)
		return nil
	})
}

// ClearFinished removes completed, pre-empted and failed sessions.
func (s *MemoryStorage) ClearFinished(ctx context.Context) error {
	return withContextError(ctx, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		for id, session := range s.sessions {
			switch session.Status {
			case types.SessionCompleted, types.SessionPreempted, types.SessionFailed:
				delete(s.sessions, id)
			}
		}
		return nil
	})
}
