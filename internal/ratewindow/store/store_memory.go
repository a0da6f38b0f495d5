// Package store provides the rate-window store backends: in-memory for
// tests and single-instance deployments, PostgreSQL and Redis for
// production.
package store

import (
	"context"
	"sync"
	"time"

	"gatekeeper/internal/ratewindow"
)

// MemoryStore keeps request-log entries per identity. Entries older than
// the retention horizon are pruned on each count so the slices stay
// bounded without a separate eviction process.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]ratewindow.Entry
}

// NewMemory creates an empty in-memory window store.
func NewMemory() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]ratewindow.Entry)}
}

func (s *MemoryStore) CountSince(_ context.Context, identityID string, windowStart time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.prune(identityID, windowStart)
	count := 0
	for _, e := range kept {
		if !e.OccurredAt.Before(windowStart) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) Insert(_ context.Context, entry ratewindow.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.IdentityID] = append(s.entries[entry.IdentityID], entry)
	return nil
}

// prune drops entries strictly before windowStart. Must be called with the
// lock held.
func (s *MemoryStore) prune(identityID string, windowStart time.Time) []ratewindow.Entry {
	all := s.entries[identityID]
	i := 0
	for ; i < len(all); i++ {
		if !all[i].OccurredAt.Before(windowStart) {
			break
		}
	}
	if i > 0 {
		all = all[i:]
		if len(all) == 0 {
			delete(s.entries, identityID)
		} else {
			s.entries[identityID] = all
		}
	}
	return all
}
