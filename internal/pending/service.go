package pending

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"hearth/internal/audit"
	"hearth/internal/events"
	"hearth/internal/scope"
	"hearth/internal/token"
	dErrors "hearth/pkg/domain-errors"
	"hearth/pkg/platform/sentinel"
)

var transitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hearth_consent_request_transitions_total",
	Help: "Pending consent request transitions by resulting status",
}, []string{"status"})

// SessionVerifier proves a caller credential is a live owner session for a
// subject. Implemented by the consent validator.
type SessionVerifier interface {
	VerifySession(ctx context.Context, wireCredential, subjectID string) error
}

// TokenMinter is the trusted internal issuance path used after an approval.
type TokenMinter interface {
	IssueApproved(ctx context.Context, subjectID, agentID string, sc scope.Scope, lifetime time.Duration) (token.Token, string, error)
}

// Service is the state machine for agent-initiated consent requests that
// need interactive approval. Stored state is authoritative; the event bus is
// notification only.
type Service struct {
	store    Store
	sessions SessionVerifier
	minter   TokenMinter
	bus      *events.Bus
	auditor  *audit.Publisher
	logger   *slog.Logger

	maxAge        time.Duration // pending older than this expires via sweep
	retention     time.Duration // terminal requests linger this long before GC
	tokenLifetime time.Duration // lifetime of tokens minted on approval
	sweepEvery    time.Duration
	clock         func() time.Time
}

// Config bundles the service's timing knobs.
type Config struct {
	MaxAge        time.Duration
	Retention     time.Duration
	TokenLifetime time.Duration
	SweepEvery    time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithAuditor records request creation and every decision in the audit
// trail.
func WithAuditor(auditor *audit.Publisher) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

func NewService(store Store, sessions SessionVerifier, minter TokenMinter, bus *events.Bus, logger *slog.Logger, cfg Config, opts ...Option) *Service {
	s := &Service{
		store:         store,
		sessions:      sessions,
		minter:        minter,
		bus:           bus,
		logger:        logger,
		maxAge:        cfg.MaxAge,
		retention:     cfg.Retention,
		tokenLifetime: cfg.TokenLifetime,
		sweepEvery:    cfg.SweepEvery,
		clock:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Create registers an agent's ask. Unknown scopes and scopes outside the
// agent's manifest are rejected here, before any human sees the request.
func (s *Service) Create(ctx context.Context, subjectID, agentID string, requested scope.Scope) (*Request, error) {
	if !scope.IsKnown(requested) {
		return nil, dErrors.New(dErrors.CodeUnknownScope, "requested scope is not in the registry: "+requested.String())
	}
	if requested == token.SessionScope {
		return nil, dErrors.New(dErrors.CodeUnknownScope, "session scope cannot be requested by an agent")
	}
	manifest, ok := scope.ManifestFor(agentID)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "agent is not registered: "+agentID)
	}
	if !manifest.MayRequest(requested) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "agent manifest does not cover scope: "+requested.String())
	}

	req := &Request{
		RequestID:      uuid.NewString(),
		SubjectID:      subjectID,
		AgentID:        agentID,
		RequestedScope: requested,
		Status:         StatusPending,
		CreatedAt:      s.clock(),
	}
	if err := s.store.Create(ctx, req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist consent request")
	}
	transitions.WithLabelValues(string(StatusPending)).Inc()
	s.publish(req)
	s.audited(ctx, req, audit.ActionRequestCreated)
	return req, nil
}

// Get returns the authoritative state of a request.
func (s *Service) Get(ctx context.Context, requestID string) (*Request, error) {
	req, err := s.store.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "consent request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load consent request")
	}
	return req, nil
}

// ListBySubject returns every request for a subject so a reconnecting client
// can re-fetch state it may have missed on the event stream.
func (s *Service) ListBySubject(ctx context.Context, subjectID string) ([]*Request, error) {
	return s.store.ListBySubject(ctx, subjectID)
}

// Approve transitions pending -> approved and mints the consent token the
// approval authorizes. The payload is stored verbatim; the server never
// inspects it. The token is minted before the transition so a lost race
// leaves nothing observable: an unminted transition cannot happen, and a
// minted-but-unreturned token is just bytes, since issuance keeps no state.
func (s *Service) Approve(ctx context.Context, requestID string, payload ApprovalPayload, callerSessionCredential string) (*Request, string, error) {
	if err := payload.Validate(); err != nil {
		return nil, "", err
	}
	req, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, "", err
	}
	if err := s.sessions.VerifySession(ctx, callerSessionCredential, req.SubjectID); err != nil {
		return nil, "", dErrors.New(dErrors.CodeUnauthorized, "caller session does not own this vault")
	}
	// Fast path for requests already decided; the transition's CAS below is
	// what settles true races.
	if req.Status.Terminal() {
		return nil, "", dErrors.New(dErrors.CodeNotPending, "consent request already decided")
	}

	_, wire, err := s.minter.IssueApproved(ctx, req.SubjectID, req.AgentID, req.RequestedScope, s.tokenLifetime)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "mint approved consent token")
	}

	updated, err := s.transition(ctx, requestID, StatusApproved, &payload)
	if err != nil {
		return nil, "", err
	}
	return updated, wire, nil
}

// Deny transitions pending -> denied. Same authorization as Approve.
func (s *Service) Deny(ctx context.Context, requestID string, callerSessionCredential string) (*Request, error) {
	req, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.VerifySession(ctx, callerSessionCredential, req.SubjectID); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller session does not own this vault")
	}
	return s.transition(ctx, requestID, StatusDenied, nil)
}

// Cancel lets the requesting agent withdraw its own ask. The subject's
// session plays no part here; only the originating agent may cancel.
func (s *Service) Cancel(ctx context.Context, requestID, callerAgentID string) (*Request, error) {
	req, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.AgentID != callerAgentID {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only the requesting agent may cancel")
	}
	return s.transition(ctx, requestID, StatusCancelled, nil)
}

func (s *Service) transition(ctx context.Context, requestID string, to Status, payload *ApprovalPayload) (*Request, error) {
	updated, err := s.store.Transition(ctx, requestID, to, payload, s.clock())
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "consent request not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeNotPending, "consent request already decided")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "transition consent request")
		}
	}
	transitions.WithLabelValues(string(to)).Inc()
	s.publish(updated)
	s.audited(ctx, updated, audit.ActionRequestDecided)
	return updated, nil
}

// Sweep expires pending requests older than the configured maximum age and
// garbage-collects terminal requests past the retention window. Idempotent
// and safe to run concurrently with request-serving paths.
func (s *Service) Sweep(ctx context.Context) error {
	now := s.clock()
	expired, err := s.store.ExpirePendingBefore(ctx, now.Add(-s.maxAge), now)
	if err != nil {
		return err
	}
	for _, req := range expired {
		transitions.WithLabelValues(string(StatusExpired)).Inc()
		s.publish(req)
		s.audited(ctx, req, audit.ActionRequestDecided)
	}
	if len(expired) > 0 {
		s.logger.InfoContext(ctx, "expired stale consent requests", "count", len(expired))
	}
	return s.store.DeleteTerminalBefore(ctx, now.Add(-s.retention))
}

// Run executes the background sweep on its interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.ErrorContext(ctx, "consent request sweep failed", "error", err)
			}
		}
	}
}

func (s *Service) audited(ctx context.Context, req *Request, action string) {
	if s.auditor == nil {
		return
	}
	s.auditor.Emit(ctx, audit.Event{
		SubjectID: req.SubjectID,
		AgentID:   req.AgentID,
		Action:    action,
		Scope:     req.RequestedScope.String(),
		Decision:  string(req.Status),
	})
}

func (s *Service) publish(req *Request) {
	s.bus.Publish(req.SubjectID, events.Event{
		Type:      events.TypeConsentUpdate,
		RequestID: req.RequestID,
		Status:    string(req.Status),
	})
}
