package records

import (
	"context"
	"sync"

	"gatekeeper/pkg/platform/sentinel"
)

// MemoryStore keeps records in maps. Used for local development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	reports  map[string]CreditReport
	disputes map[string]Dispute
}

// NewMemory constructs an empty in-memory record store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		reports:  make(map[string]CreditReport),
		disputes: make(map[string]Dispute),
	}
}

// PutCreditReport seeds a report.
func (s *MemoryStore) PutCreditReport(report CreditReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = report
}

func (s *MemoryStore) GetCreditReport(_ context.Context, id string) (CreditReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[id]
	if !ok {
		return CreditReport{}, sentinel.ErrNotFound
	}
	return report, nil
}

func (s *MemoryStore) GetDispute(_ context.Context, id string) (Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dispute, ok := s.disputes[id]
	if !ok {
		return Dispute{}, sentinel.ErrNotFound
	}
	return dispute, nil
}

func (s *MemoryStore) CreateDispute(_ context.Context, dispute Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.disputes[dispute.ID]; exists {
		return sentinel.ErrConflict
	}
	s.disputes[dispute.ID] = dispute
	return nil
}
