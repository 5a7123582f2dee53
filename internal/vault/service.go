package vault

import (
	"context"
	"log/slog"
	"time"

	"hearth/internal/audit"
	"hearth/internal/consent"
	"hearth/internal/scope"
	dErrors "hearth/pkg/domain-errors"
)

// Checker validates wire tokens against a required scope.
type Checker interface {
	Validate(ctx context.Context, wireToken string, required scope.Scope) consent.Result
}

// Service guards vault access with consent tokens. Every read and write
// demands a token whose scope covers the collection; outcomes land in the
// audit trail while callers only ever see a generic authorization error.
type Service struct {
	store   Store
	checker Checker
	audit   *audit.Publisher
	logger  *slog.Logger
	clock   func() time.Time
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

func NewService(store Store, checker Checker, auditor *audit.Publisher, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, checker: checker, audit: auditor, logger: logger, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func readScope(collection string) scope.Scope {
	return scope.Scope("vault.read." + collection)
}

func writeScope(collection string) scope.Scope {
	return scope.Scope("vault.write." + collection)
}

// Read returns the blob stored for the token's subject in collection.
func (s *Service) Read(ctx context.Context, wireToken, collection string) (Blob, error) {
	if _, ok := knownCollections[collection]; !ok {
		return Blob{}, dErrors.New(dErrors.CodeNotFound, "unknown collection")
	}

	res := s.checker.Validate(ctx, wireToken, readScope(collection))
	if !res.Valid {
		s.denied(ctx, res, collection, "read")
		return Blob{}, dErrors.New(dErrors.CodeUnauthorized, "not authorized")
	}

	blob, err := s.store.Get(ctx, res.SubjectID, collection)
	if err != nil {
		return Blob{}, err
	}
	s.allowed(ctx, res, collection, "read")
	return blob, nil
}

// Write stores blob for the token's subject in collection, replacing any
// previous version.
func (s *Service) Write(ctx context.Context, wireToken, collection string, blob Blob) error {
	if _, ok := knownCollections[collection]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "unknown collection")
	}
	if err := blob.Validate(); err != nil {
		return err
	}

	res := s.checker.Validate(ctx, wireToken, writeScope(collection))
	if !res.Valid {
		s.denied(ctx, res, collection, "write")
		return dErrors.New(dErrors.CodeUnauthorized, "not authorized")
	}

	blob.UpdatedAt = s.clock()
	if err := s.store.Put(ctx, res.SubjectID, collection, blob); err != nil {
		return err
	}
	s.allowed(ctx, res, collection, "write")
	return nil
}

func (s *Service) allowed(ctx context.Context, res consent.Result, collection, op string) {
	s.audit.Emit(ctx, audit.Event{
		SubjectID: res.SubjectID,
		AgentID:   res.AgentID,
		Action:    audit.ActionVaultAccess,
		Scope:     res.Scope.String(),
		Decision:  "allowed",
		Reason:    op + ":" + collection,
	})
}

func (s *Service) denied(ctx context.Context, res consent.Result, collection, op string) {
	s.logger.WarnContext(ctx, "vault access denied",
		"collection", collection,
		"op", op,
		"reason", string(res.Reason),
	)
	s.audit.Emit(ctx, audit.Event{
		SubjectID: res.SubjectID,
		AgentID:   res.AgentID,
		Action:    audit.ActionVaultAccess,
		Decision:  "denied",
		Reason:    string(res.Reason),
	})
}
