package vault

import (
	"context"
	"fmt"
	"sync"
	"time"

	dErrors "hearth/pkg/domain-errors"
	"hearth/pkg/platform/sentinel"
)

// Collections the vault stores. Each maps to a read and a write scope.
const (
	CollectionFood    = "food"
	CollectionHealth  = "health"
	CollectionJournal = "journal"
)

var knownCollections = map[string]struct{}{
	CollectionFood:    {},
	CollectionHealth:  {},
	CollectionJournal: {},
}

// Blob is an opaque ciphertext record. The server never holds the key
// material to open it; encryption and decryption happen on owner devices.
type Blob struct {
	Ciphertext []byte    `json:"ciphertext"`
	IV         []byte    `json:"iv"`
	AuthTag    []byte    `json:"auth_tag"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const maxBlobBytes = 1 << 20

// Validate rejects incomplete or oversized blobs before they reach a store.
func (b Blob) Validate() error {
	if len(b.Ciphertext) == 0 || len(b.IV) == 0 || len(b.AuthTag) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "blob requires ciphertext, iv and auth tag")
	}
	if len(b.Ciphertext) > maxBlobBytes {
		return dErrors.New(dErrors.CodeBadRequest, "ciphertext exceeds maximum size")
	}
	return nil
}

// Store persists one blob per (subject, collection) pair.
type Store interface {
	Put(ctx context.Context, subjectID, collection string, blob Blob) error
	// Get returns sentinel.ErrNotFound when nothing has been stored yet.
	Get(ctx context.Context, subjectID, collection string) (Blob, error)
}

// MemoryStore is the in-memory Store used by tests and single-instance
// deployments.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]Blob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]Blob)}
}

func blobKey(subjectID, collection string) string {
	return subjectID + "/" + collection
}

func (s *MemoryStore) Put(_ context.Context, subjectID, collection string, blob Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[blobKey(subjectID, collection)] = blob
	return nil
}

func (s *MemoryStore) Get(_ context.Context, subjectID, collection string) (Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[blobKey(subjectID, collection)]
	if !ok {
		return Blob{}, fmt.Errorf("no %s blob for subject: %w", collection, sentinel.ErrNotFound)
	}
	return blob, nil
}
