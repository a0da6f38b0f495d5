// Package profile provides stores for account profile records: role and
// permission facts the gate reads during validation and authorization.
package profile

import (
	"context"
	"sync"

	"gatekeeper/internal/gate/models"
	"gatekeeper/pkg/platform/sentinel"
)

// MemoryStore keeps profiles in a map for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
}

// NewMemory creates an empty in-memory profile store.
func NewMemory() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]models.Profile)}
}

// Put upserts a profile record.
func (s *MemoryStore) Put(profile models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.IdentityID] = profile
}

func (s *MemoryStore) GetProfile(_ context.Context, identityID string) (models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[identityID]
	if !ok {
		return models.Profile{}, sentinel.ErrNotFound
	}
	return p, nil
}
