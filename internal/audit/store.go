package audit

import (
	"context"
	"sync"
)

// Sink receives audit events. Stores and brokers both implement it.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a queryable sink.
type Store interface {
	Sink
	ListBySubject(ctx context.Context, subjectID string) ([]Event, error)
}

// MemoryStore keeps the audit trail in memory. Tests and single-instance
// deployments use it directly; production fans out to Kafka as well.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) ListBySubject(_ context.Context, subjectID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, ev := range s.events {
		if ev.SubjectID == subjectID {
			out = append(out, ev)
		}
	}
	return out, nil
}
