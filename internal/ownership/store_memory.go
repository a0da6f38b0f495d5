// Package ownership answers which identity owns a resource. The gate reads
// these facts during authorization; resource lifecycles are owned by the
// application services that create them.
package ownership

import (
	"context"
	"sync"

	"gatekeeper/internal/gate/models"
	"gatekeeper/pkg/platform/sentinel"
)

type ownerKey struct {
	resourceType models.ResourceType
	resourceID   string
}

// MemoryStore keeps ownership facts in a map for tests and local
// development.
type MemoryStore struct {
	mu     sync.RWMutex
	owners map[ownerKey]string
}

// NewMemory creates an empty in-memory ownership store.
func NewMemory() *MemoryStore {
	return &MemoryStore{owners: make(map[ownerKey]string)}
}

// Put records an ownership fact.
func (s *MemoryStore) Put(resourceType models.ResourceType, resourceID, identityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[ownerKey{resourceType, resourceID}] = identityID
}

func (s *MemoryStore) ResourceOwner(_ context.Context, resourceType models.ResourceType, resourceID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.owners[ownerKey{resourceType, resourceID}]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return owner, nil
}
