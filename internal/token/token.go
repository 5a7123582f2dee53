package token

import (
	"time"

	"hearth/internal/scope"
)

// Token is a signed, time-bound, scope-bound capability over the subject's
// vault. Immutable once issued: it is never mutated, only expired or entered
// into the revocation list.
//
// One token carries exactly one scope; multiple scopes require multiple
// tokens.
type Token struct {
	SubjectID string
	AgentID   string
	Scope     scope.Scope
	IssuedAt  int64 // milliseconds since epoch
	ExpiresAt int64 // milliseconds since epoch; invariant ExpiresAt > IssuedAt
	TokenID   string
}

// SessionScope marks a session token: proof that the authenticated owner is
// currently present. Session tokens authorize issuance of scoped tokens.
const SessionScope = scope.ScopeSessionOwner

// IsSession reports whether this is an owner session token.
func (t Token) IsSession() bool {
	return t.Scope == SessionScope
}

// Expired reports whether the token's lifetime has elapsed at the given time.
func (t Token) Expired(now time.Time) bool {
	return now.UnixMilli() > t.ExpiresAt
}

// Millis converts a wall-clock time to the wire's millisecond representation.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
