package issuer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"hearth/internal/audit"
	"hearth/internal/scope"
	"hearth/internal/token"
	dErrors "hearth/pkg/domain-errors"
)

var tokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hearth_tokens_issued_total",
	Help: "Total number of consent and session tokens issued",
}, []string{"kind"})

// SessionVerifier proves that a caller credential is a live owner session
// for a given subject. Implemented by the consent validator; the seam keeps
// the issuer free of revocation-store wiring.
type SessionVerifier interface {
	VerifySession(ctx context.Context, wireCredential, subjectID string) error
}

// Issuer mints consent and session tokens. It holds no per-token state:
// a token is self-describing and needs no server-side record to validate
// later, only a revocation entry if it is ever explicitly revoked.
type Issuer struct {
	codec       *token.Codec
	sessions    SessionVerifier
	maxLifetime time.Duration
	sessionTTL  time.Duration
	auditor     *audit.Publisher
	clock       func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(i *Issuer) {
		if clock != nil {
			i.clock = clock
		}
	}
}

// WithAuditor records every minted consent token in the audit trail.
func WithAuditor(auditor *audit.Publisher) Option {
	return func(i *Issuer) {
		i.auditor = auditor
	}
}

// New constructs an Issuer. maxLifetime is the ceiling any requested token
// lifetime is clamped to; sessionTTL bounds owner session tokens.
func New(codec *token.Codec, sessions SessionVerifier, maxLifetime, sessionTTL time.Duration, opts ...Option) *Issuer {
	i := &Issuer{
		codec:       codec,
		sessions:    sessions,
		maxLifetime: maxLifetime,
		sessionTTL:  sessionTTL,
		clock:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

// Issue mints a scoped consent token for (subject, agent, scope). The caller
// must prove live ownership with a valid session token for the subject; you
// cannot mint a scoped capability without one.
func (i *Issuer) Issue(ctx context.Context, subjectID, agentID string, sc scope.Scope, lifetime time.Duration, callerCredential string) (token.Token, string, error) {
	if err := i.sessions.VerifySession(ctx, callerCredential, subjectID); err != nil {
		return token.Token{}, "", dErrors.Wrap(err, dErrors.CodeUnauthorized, "caller is not an authenticated owner session")
	}
	t, wire, err := i.mint(subjectID, agentID, sc, lifetime, "consent")
	if err != nil {
		return token.Token{}, "", err
	}
	i.audited(ctx, t)
	return t, wire, nil
}

// IssueApproved is the trusted internal path used by the pending-request
// workflow after an interactive approval. The human approval step already
// proved presence, so no session credential is required here.
func (i *Issuer) IssueApproved(ctx context.Context, subjectID, agentID string, sc scope.Scope, lifetime time.Duration) (token.Token, string, error) {
	t, wire, err := i.mint(subjectID, agentID, sc, lifetime, "consent")
	if err != nil {
		return token.Token{}, "", err
	}
	i.audited(ctx, t)
	return t, wire, nil
}

func (i *Issuer) audited(ctx context.Context, t token.Token) {
	if i.auditor == nil {
		return
	}
	i.auditor.Emit(ctx, audit.Event{
		SubjectID: t.SubjectID,
		AgentID:   t.AgentID,
		Action:    audit.ActionTokenIssued,
		Scope:     t.Scope.String(),
		Decision:  "allowed",
	})
}

// IssueSession mints an owner session token: the capability used to
// authorize minting of scoped consent tokens. Callers must have verified
// the owner's external identity assertion first.
func (i *Issuer) IssueSession(subjectID string) (token.Token, string, error) {
	now := i.clock()
	t := token.Token{
		SubjectID: subjectID,
		AgentID:   "owner",
		Scope:     token.SessionScope,
		IssuedAt:  token.Millis(now),
		ExpiresAt: token.Millis(now.Add(i.sessionTTL)),
		TokenID:   uuid.NewString(),
	}
	wire, err := i.codec.Encode(t)
	if err != nil {
		return token.Token{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "encode session token")
	}
	tokensIssued.WithLabelValues("session").Inc()
	return t, wire, nil
}

func (i *Issuer) mint(subjectID, agentID string, sc scope.Scope, lifetime time.Duration, kind string) (token.Token, string, error) {
	if !scope.IsKnown(sc) {
		return token.Token{}, "", dErrors.New(dErrors.CodeUnknownScope, "scope is not in the registry: "+sc.String())
	}
	if sc == token.SessionScope {
		return token.Token{}, "", dErrors.New(dErrors.CodeUnknownScope, "session scope cannot be issued as a consent token")
	}
	manifest, ok := scope.ManifestFor(agentID)
	if !ok {
		return token.Token{}, "", dErrors.New(dErrors.CodeUnauthorized, "agent is not registered: "+agentID)
	}
	if !manifest.MayRequest(sc) {
		return token.Token{}, "", dErrors.New(dErrors.CodeUnauthorized, "agent manifest does not cover scope: "+sc.String())
	}

	// Clamp rather than reject: a caller asking for forever gets the ceiling.
	if lifetime <= 0 || lifetime > i.maxLifetime {
		lifetime = i.maxLifetime
	}

	now := i.clock()
	t := token.Token{
		SubjectID: subjectID,
		AgentID:   agentID,
		Scope:     sc,
		IssuedAt:  token.Millis(now),
		ExpiresAt: token.Millis(now.Add(lifetime)),
		TokenID:   uuid.NewString(),
	}
	wire, err := i.codec.Encode(t)
	if err != nil {
		return token.Token{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "encode consent token")
	}
	tokensIssued.WithLabelValues(kind).Inc()
	return t, wire, nil
}
