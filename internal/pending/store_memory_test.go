package pending

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hearth/internal/scope"
	"hearth/pkg/platform/sentinel"
)

func storedRequest(subjectID string) *Request {
	return &Request{
		RequestID:      uuid.NewString(),
		SubjectID:      subjectID,
		AgentID:        "kai",
		RequestedScope: scope.ScopeVaultReadFood,
		Status:         StatusPending,
		CreatedAt:      time.Now(),
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	req := storedRequest(uuid.NewString())

	require.NoError(t, store.Create(ctx, req))
	assert.ErrorIs(t, store.Create(ctx, req), sentinel.ErrConflict)

	got, err := store.Get(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, req.RequestID, got.RequestID)

	_, err = store.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	req := storedRequest(uuid.NewString())
	require.NoError(t, store.Create(ctx, req))

	got, err := store.Get(ctx, req.RequestID)
	require.NoError(t, err)
	got.Status = StatusDenied // mutating the copy must not leak into the store

	again, err := store.Get(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, again.Status)
}

func TestMemoryStore_Transition_CAS(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	req := storedRequest(uuid.NewString())
	require.NoError(t, store.Create(ctx, req))

	now := time.Now()
	updated, err := store.Transition(ctx, req.RequestID, StatusApproved, &ApprovalPayload{
		Ciphertext: []byte("ct"), IV: []byte("iv"), AuthTag: []byte("tag"),
	}, now)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, updated.Status)
	require.NotNil(t, updated.DecidedAt)

	_, err = store.Transition(ctx, req.RequestID, StatusDenied, nil, now)
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)

	_, err = store.Transition(ctx, uuid.NewString(), StatusDenied, nil, now)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryStore_ListBySubject(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	subject := uuid.NewString()

	require.NoError(t, store.Create(ctx, storedRequest(subject)))
	require.NoError(t, store.Create(ctx, storedRequest(subject)))
	require.NoError(t, store.Create(ctx, storedRequest(uuid.NewString())))

	list, err := store.ListBySubject(ctx, subject)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestMemoryStore_ExpirePendingBefore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	old := storedRequest(uuid.NewString())
	old.CreatedAt = now.Add(-time.Hour)
	fresh := storedRequest(uuid.NewString())
	fresh.CreatedAt = now

	require.NoError(t, store.Create(ctx, old))
	require.NoError(t, store.Create(ctx, fresh))

	expired, err := store.ExpirePendingBefore(ctx, now.Add(-30*time.Minute), now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, old.RequestID, expired[0].RequestID)
	assert.Equal(t, StatusExpired, expired[0].Status)

	got, err := store.Get(ctx, fresh.RequestID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}
