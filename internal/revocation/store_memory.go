package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process revocation list. Reads happen on every
// validation, writes only on logout or explicit revoke, so it sits behind a
// read-mostly lock. Suitable for single-instance deployments and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	subjects map[string]time.Time
	tokens   map[string]time.Time

	retention time.Duration
	clock     Clock
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMemoryClock sets the clock function for testability.
func WithMemoryClock(clock Clock) MemoryStoreOption {
	return func(s *MemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewMemoryStore constructs an in-memory revocation list. retention is the
// maximum token lifetime ceiling: entries older than that can never match a
// live token.
func NewMemoryStore(retention time.Duration, opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		subjects:  make(map[string]time.Time),
		tokens:    make(map[string]time.Time),
		retention: retention,
		clock:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MemoryStore) RevokeSubject(_ context.Context, subjectID string, at time.Time) error {
	if err := validateTimestamp(at); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Keep the latest revocation; it covers everything an earlier one did.
	if existing, ok := s.subjects[subjectID]; !ok || at.After(existing) {
		s.subjects[subjectID] = at
	}
	return nil
}

func (s *MemoryStore) RevokeToken(_ context.Context, tokenID string, at time.Time) error {
	if tokenID == "" {
		return nil
	}
	if err := validateTimestamp(at); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenID] = at
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, subjectID, tokenID string, issuedAt int64) (bool, error) {
	start := s.clock()
	defer observeCheck(start)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if revokedAt, ok := s.subjects[subjectID]; ok && issuedAt <= revokedAt.UnixMilli() {
		return true, nil
	}
	if _, ok := s.tokens[tokenID]; ok {
		return true, nil
	}
	return false, nil
}

// Prune drops entries older than the retention window. Safe to run
// concurrently with validation.
func (s *MemoryStore) Prune(_ context.Context, now time.Time) error {
	cutoff := now.Add(-s.retention)
	s.mu.Lock()
	defer s.mu.Unlock()
	for subject, revokedAt := range s.subjects {
		if revokedAt.Before(cutoff) {
			delete(s.subjects, subject)
		}
	}
	for jti, revokedAt := range s.tokens {
		if revokedAt.Before(cutoff) {
			delete(s.tokens, jti)
		}
	}
	return nil
}
