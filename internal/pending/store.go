package pending

import (
	"context"
	"time"
)

// Store persists consent requests. Transition is the synchronization point:
// implementations must guarantee that two callers racing to decide the same
// request observe exactly one winner, the loser getting
// sentinel.ErrInvalidState.
type Store interface {
	Create(ctx context.Context, req *Request) error
	// Get returns sentinel.ErrNotFound when the request does not exist.
	Get(ctx context.Context, requestID string) (*Request, error)
	ListBySubject(ctx context.Context, subjectID string) ([]*Request, error)
	// Transition atomically moves a pending request into a terminal status
	// (compare-and-swap on status = pending). payload may be nil except for
	// the approved transition. Returns sentinel.ErrNotFound for unknown
	// requests and sentinel.ErrInvalidState when the request is no longer
	// pending.
	Transition(ctx context.Context, requestID string, to Status, payload *ApprovalPayload, at time.Time) (*Request, error)
	// ExpirePendingBefore moves every pending request created before the
	// cutoff to expired, returning the requests it transitioned.
	ExpirePendingBefore(ctx context.Context, cutoff time.Time, at time.Time) ([]*Request, error)
	// DeleteTerminalBefore garbage-collects requests that reached a terminal
	// state before the cutoff.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) error
}
