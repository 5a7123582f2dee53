package consent

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"hearth/internal/audit"
	"hearth/internal/revocation"
	"hearth/internal/scope"
	"hearth/internal/token"
	dErrors "hearth/pkg/domain-errors"
)

// Reason classifies why a token failed validation. Reasons are retained for
// server-side audit only; untrusted callers see a single generic
// "not authorized" outcome so they cannot distinguish expired from revoked
// from forged tokens.
type Reason string

const (
	ReasonMalformed        Reason = "malformed"
	ReasonBadSignature     Reason = "bad_signature"
	ReasonExpired          Reason = "expired"
	ReasonRevoked          Reason = "revoked"
	ReasonScopeMismatch    Reason = "scope_mismatch"
	ReasonStoreUnavailable Reason = "store_unavailable"
)

// Result is the outcome of a validation. When Valid is false, Reason says
// why; the identity fields are only populated for valid tokens.
type Result struct {
	Valid     bool
	Reason    Reason
	SubjectID string
	AgentID   string
	Scope     scope.Scope
	TokenID   string
}

var validationResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hearth_token_validations_total",
	Help: "Token validation outcomes by reason (reason=ok for valid tokens)",
}, []string{"reason"})

var tracer = otel.Tracer("hearth/consent")

// revocationTimeout bounds the only I/O a validation can perform. A lookup
// that exceeds it fails closed: the token is treated as revoked, never as
// valid.
const revocationTimeout = 2 * time.Second

// Validator is the gatekeeper called on every protected operation. It is a
// decision function over the codec, scope registry and revocation store;
// its only side effects are metrics, tracing and audit.
type Validator struct {
	codec       *token.Codec
	revocations revocation.Store
	auditor     *audit.Publisher
	clock       func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(v *Validator) {
		if clock != nil {
			v.clock = clock
		}
	}
}

// WithAuditor records every rejected validation, with its reason, in the
// audit trail. Callers only ever see the generic outcome.
func WithAuditor(auditor *audit.Publisher) Option {
	return func(v *Validator) {
		v.auditor = auditor
	}
}

func NewValidator(codec *token.Codec, revocations revocation.Store, opts ...Option) *Validator {
	v := &Validator{
		codec:       codec,
		revocations: revocations,
		clock:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Validate runs the ordered checks: decode, signature, expiry, revocation,
// scope. Cheap structural checks come first so malformed or expired tokens
// (the common failure during normal expiry churn) never touch the
// revocation store.
func (v *Validator) Validate(ctx context.Context, wireToken string, required scope.Scope) Result {
	ctx, span := tracer.Start(ctx, "consent.validate")
	defer span.End()

	result := v.validate(ctx, wireToken, required)
	reason := "ok"
	if !result.Valid {
		reason = string(result.Reason)
	}
	validationResults.WithLabelValues(reason).Inc()
	span.SetAttributes(attribute.String("consent.result", reason))
	if !result.Valid && v.auditor != nil {
		v.auditor.Emit(ctx, audit.Event{
			SubjectID: result.SubjectID,
			AgentID:   result.AgentID,
			Action:    audit.ActionTokenValidated,
			Scope:     required.String(),
			Decision:  "denied",
			Reason:    reason,
		})
	}
	return result
}

func (v *Validator) validate(ctx context.Context, wireToken string, required scope.Scope) Result {
	t, err := v.codec.Decode(wireToken)
	if err != nil {
		if errors.Is(err, token.ErrBadSignature) {
			return Result{Reason: ReasonBadSignature}
		}
		return Result{Reason: ReasonMalformed}
	}

	if t.Expired(v.clock()) {
		return Result{Reason: ReasonExpired}
	}

	rctx, cancel := context.WithTimeout(ctx, revocationTimeout)
	defer cancel()
	revoked, err := v.revocations.IsRevoked(rctx, t.SubjectID, t.TokenID, t.IssuedAt)
	if err != nil {
		// Fail closed: an unreachable revocation store must never admit a
		// token that might be revoked.
		return Result{Reason: ReasonStoreUnavailable}
	}
	if revoked {
		return Result{Reason: ReasonRevoked}
	}

	if !scope.Satisfies(t.Scope, required) {
		return Result{Reason: ReasonScopeMismatch}
	}

	return Result{
		Valid:     true,
		SubjectID: t.SubjectID,
		AgentID:   t.AgentID,
		Scope:     t.Scope,
		TokenID:   t.TokenID,
	}
}

// VerifySession checks that wireCredential is a live owner session token for
// subjectID. Used as the issuance precondition and for approve/deny
// authorization in the pending-request workflow.
func (v *Validator) VerifySession(ctx context.Context, wireCredential, subjectID string) error {
	result := v.Validate(ctx, wireCredential, token.SessionScope)
	if !result.Valid {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid session credential")
	}
	if result.SubjectID != subjectID {
		return dErrors.New(dErrors.CodeUnauthorized, "session does not belong to subject")
	}
	return nil
}
