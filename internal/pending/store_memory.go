package pending

import (
	"context"
	"sync"
	"time"

	"hearth/pkg/platform/sentinel"
)

// MemoryStore keeps the request table in process memory, suitable for
// single-instance deployments and tests. All mutations go through a single
// mutex; Transition performs its status compare-and-swap while holding it,
// which is what makes racing deciders observe exactly one winner.
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*Request
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{requests: make(map[string]*Request)}
}

func (s *MemoryStore) Create(_ context.Context, req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.RequestID]; exists {
		return sentinel.ErrConflict
	}
	clone := *req
	s.requests[req.RequestID] = &clone
	return nil
}

func (s *MemoryStore) Get(_ context.Context, requestID string) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *req
	return &clone, nil
}

func (s *MemoryStore) ListBySubject(_ context.Context, subjectID string) ([]*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Request
	for _, req := range s.requests {
		if req.SubjectID == subjectID {
			clone := *req
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *MemoryStore) Transition(_ context.Context, requestID string, to Status, payload *ApprovalPayload, at time.Time) (*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if req.Status != StatusPending {
		return nil, sentinel.ErrInvalidState
	}
	req.Status = to
	req.DecidedAt = &at
	req.Payload = payload
	clone := *req
	return &clone, nil
}

func (s *MemoryStore) ExpirePendingBefore(_ context.Context, cutoff time.Time, at time.Time) ([]*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []*Request
	for _, req := range s.requests {
		if req.Status == StatusPending && req.CreatedAt.Before(cutoff) {
			req.Status = StatusExpired
			req.DecidedAt = &at
			clone := *req
			expired = append(expired, &clone)
		}
	}
	return expired, nil
}

func (s *MemoryStore) DeleteTerminalBefore(_ context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, req := range s.requests {
		if req.Status.Terminal() && req.DecidedAt != nil && req.DecidedAt.Before(cutoff) {
			delete(s.requests, id)
		}
	}
	return nil
}
