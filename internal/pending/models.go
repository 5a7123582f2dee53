package pending

import (
	"time"

	dErrors "hearth/pkg/domain-errors"

	"hearth/internal/scope"
)

// Status of a consent request. pending is the only non-terminal state;
// transitions are one-way and exactly one terminal state is ever reached.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusDenied    Status = "denied"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// Approval payload size bounds. The core never decrypts or inspects this
// data; it only checks presence and size before relaying.
const (
	maxCiphertextBytes = 128 << 10
	maxIVBytes         = 64
	maxAuthTagBytes    = 64
)

// ApprovalPayload is the opaque re-encrypted blob supplied by the approving
// client. The server is a blind relay: the three parts travel together and
// are never parsed beyond these bounds, since doing so would reintroduce a
// server-side plaintext-visibility assumption.
type ApprovalPayload struct {
	Ciphertext []byte `json:"ciphertext"`
	IV         []byte `json:"iv"`
	AuthTag    []byte `json:"auth_tag"`
}

// Validate enforces presence and size bounds: all three parts required
// together or the payload is rejected as malformed.
func (p ApprovalPayload) Validate() error {
	if len(p.Ciphertext) == 0 || len(p.IV) == 0 || len(p.AuthTag) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "approval payload requires ciphertext, iv and auth tag")
	}
	if len(p.Ciphertext) > maxCiphertextBytes {
		return dErrors.New(dErrors.CodeBadRequest, "approval payload ciphertext exceeds size bound")
	}
	if len(p.IV) > maxIVBytes || len(p.AuthTag) > maxAuthTagBytes {
		return dErrors.New(dErrors.CodeBadRequest, "approval payload iv or auth tag exceeds size bound")
	}
	return nil
}

// Request is an agent's ask awaiting the owner's decision. Mutated only by
// the owner's approval/denial, the agent's withdrawal, or the expiry sweep.
type Request struct {
	RequestID      string
	SubjectID      string
	AgentID        string
	RequestedScope scope.Scope
	Status         Status
	CreatedAt      time.Time
	DecidedAt      *time.Time
	// Payload is only set in the approved state.
	Payload *ApprovalPayload
}
