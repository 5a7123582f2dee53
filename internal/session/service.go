package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mssola/useragent"

	"hearth/internal/audit"
	"hearth/internal/consent"
	"hearth/internal/revocation"
	"hearth/internal/scope"
	"hearth/internal/token"
	dErrors "hearth/pkg/domain-errors"
)

// IdentityVerifier proves who the caller is from an upstream assertion.
type IdentityVerifier interface {
	Verify(ctx context.Context, assertion string) (string, error)
}

// Minter mints owner session credentials.
type Minter interface {
	IssueSession(subjectID string) (token.Token, string, error)
}

// SessionChecker validates wire credentials against a required scope.
type SessionChecker interface {
	Validate(ctx context.Context, wireToken string, required scope.Scope) consent.Result
}

// Service owns the session lifecycle: exchanging an identity assertion for
// an owner session credential, logging out everywhere, and owner-initiated
// revocation of individual consent tokens.
type Service struct {
	identities  IdentityVerifier
	minter      Minter
	checker     SessionChecker
	codec       *token.Codec
	revocations revocation.Store
	audit       *audit.Publisher
	logger      *slog.Logger
	clock       func() time.Time
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

func NewService(
	identities IdentityVerifier,
	minter Minter,
	checker SessionChecker,
	codec *token.Codec,
	revocations revocation.Store,
	auditor *audit.Publisher,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		identities:  identities,
		minter:      minter,
		checker:     checker,
		codec:       codec,
		revocations: revocations,
		audit:       auditor,
		logger:      logger,
		clock:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Login exchanges an identity assertion for an owner session credential.
func (s *Service) Login(ctx context.Context, assertion, rawUserAgent string) (token.Token, string, error) {
	subjectID, err := s.identities.Verify(ctx, assertion)
	if err != nil {
		s.logger.WarnContext(ctx, "login rejected", "error", err)
		return token.Token{}, "", err
	}

	tok, wire, err := s.minter.IssueSession(subjectID)
	if err != nil {
		return token.Token{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint session")
	}

	s.audit.Emit(ctx, audit.Event{
		SubjectID: subjectID,
		Action:    audit.ActionSessionLogin,
		Decision:  "allowed",
		Device:    deviceSummary(rawUserAgent),
	})
	return tok, wire, nil
}

// Logout revokes every token for the session's subject, the session
// credential included. Tokens minted after this moment are unaffected.
func (s *Service) Logout(ctx context.Context, sessionWire string) error {
	res := s.checker.Validate(ctx, sessionWire, token.SessionScope)
	if !res.Valid {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid session")
	}

	if err := s.revocations.RevokeSubject(ctx, res.SubjectID, s.clock()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to revoke subject")
	}

	s.audit.Emit(ctx, audit.Event{
		SubjectID: res.SubjectID,
		Action:    audit.ActionSessionLogout,
		Decision:  "allowed",
	})
	return nil
}

// RevokeToken revokes a single consent token. The caller must present an
// owner session for the same subject the token was issued to; expired
// tokens may still be revoked so a visible grant can always be killed.
func (s *Service) RevokeToken(ctx context.Context, sessionWire, targetWire string) error {
	res := s.checker.Validate(ctx, sessionWire, token.SessionScope)
	if !res.Valid {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid session")
	}

	target, err := s.codec.Decode(targetWire)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "unrecognized token")
	}
	if target.SubjectID != res.SubjectID {
		s.logger.WarnContext(ctx, "cross-subject revocation attempt",
			"subject_id", res.SubjectID,
		)
		return dErrors.New(dErrors.CodeForbidden, "not authorized")
	}

	if err := s.revocations.RevokeToken(ctx, target.TokenID, s.clock()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to revoke token")
	}

	s.audit.Emit(ctx, audit.Event{
		SubjectID: res.SubjectID,
		AgentID:   target.AgentID,
		Action:    audit.ActionTokenRevoked,
		Scope:     target.Scope.String(),
		Decision:  "allowed",
	})
	return nil
}

// deviceSummary reduces a User-Agent header to a short human-readable label
// for the audit trail.
func deviceSummary(raw string) string {
	if raw == "" {
		return "unknown"
	}
	ua := useragent.New(raw)
	browser, version := ua.Browser()
	if browser == "" {
		return "unknown"
	}
	if os := ua.OS(); os != "" {
		return fmt.Sprintf("%s %s on %s", browser, version, os)
	}
	return fmt.Sprintf("%s %s", browser, version)
}
