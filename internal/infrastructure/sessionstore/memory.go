package sessionstore

import (
	"context"
	"encoding/json"
	"sync"

	"sentinel-lab/internal/domain/models"
)

// MemoryStore is the in-process session backend, used when Redis is
// not configured. Sessions survive for the life of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

// Load returns a deep copy so callers can mutate freely
func (s *MemoryStore) Load(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	data, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return models.NewSession(id), nil
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return models.NewSession(id), nil
	}
	return &session, nil
}

// Save stores a snapshot of the session
func (s *MemoryStore) Save(_ context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sessions[session.ID] = data
	s.mu.Unlock()
	return nil
}

// Count returns the number of stored sessions
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close is a no-op for the memory backend
func (s *MemoryStore) Close() error {
	return nil
}
