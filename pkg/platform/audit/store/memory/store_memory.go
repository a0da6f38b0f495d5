// Package memory provides an in-memory audit store for tests and local
// development.
package memory

import (
	"context"
	"sync"

	"gatekeeper/pkg/platform/audit"
)

// Store keeps appended events in slices guarded by a mutex.
type Store struct {
	mu       sync.Mutex
	events   []audit.Event
	security []audit.SecurityEvent
}

// New creates an empty in-memory audit store.
func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *Store) AppendSecurity(_ context.Context, event audit.SecurityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.security = append(s.security, event)
	return nil
}

// Events returns a copy of the appended audit events.
func (s *Store) Events() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out
}

// SecurityEvents returns a copy of the appended security events.
func (s *Store) SecurityEvents() []audit.SecurityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.SecurityEvent, len(s.security))
	copy(out, s.security)
	return out
}
