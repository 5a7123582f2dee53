package audit

import "time"

// Event is emitted from domain logic to capture key consent decisions. Keep
// it transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	SubjectID string    `json:"subject_id"`
	AgentID   string    `json:"agent_id,omitempty"`
	Action    string    `json:"action"`
	Scope     string    `json:"scope,omitempty"`
	Decision  string    `json:"decision"`
	Reason    string    `json:"reason,omitempty"`
	Device    string    `json:"device,omitempty"`
	TraceID   string    `json:"trace_id,omitempty"`
}

// Audit actions.
const (
	ActionSessionLogin    = "session.login"
	ActionSessionLogout   = "session.logout"
	ActionTokenIssued     = "token.issued"
	ActionTokenRevoked    = "token.revoked"
	ActionTokenValidated  = "token.validated"
	ActionRequestCreated  = "consent_request.created"
	ActionRequestDecided  = "consent_request.decided"
	ActionVaultAccess     = "vault.access"
)
