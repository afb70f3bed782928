// Package session provides the SessionStore backends.
package session

import (
	"context"
	"sync"

	"github.com/yprite/Tesla-LockChime-sub001/internal/models"
)

// MemoryStore keeps metadata in process memory. It suits a deployment where
// the process itself is the unit of restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.SessionMetadata
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]models.SessionMetadata)}
}

func (s *MemoryStore) Attach(_ context.Context, connID string, meta models.SessionMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[connID] = meta
	return nil
}

func (s *MemoryStore) Load(_ context.Context, connID string) models.SessionMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[connID]
}

func (s *MemoryStore) Detach(_ context.Context, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, connID)
}

// Len is an introspection helper reporting the number of attached sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
