package issuer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hearth/internal/audit"
	"hearth/internal/consent"
	"hearth/internal/revocation"
	"hearth/internal/scope"
	"hearth/internal/token"
	dErrors "hearth/pkg/domain-errors"
)

const (
	maxLifetime = 24 * time.Hour
	sessionTTL  = 15 * time.Minute
)

func newIssuer(t *testing.T) (*Issuer, *consent.Validator, *token.Codec) {
	t.Helper()
	keys, err := token.NewKeyring("issuer-test-secret", "")
	require.NoError(t, err)
	codec := token.NewCodec(keys)
	validator := consent.NewValidator(codec, revocation.NewMemoryStore(maxLifetime))
	return New(codec, validator, maxLifetime, sessionTTL), validator, codec
}

func ownerSession(t *testing.T, iss *Issuer, subjectID string) string {
	t.Helper()
	_, wire, err := iss.IssueSession(subjectID)
	require.NoError(t, err)
	return wire
}

func TestIssue_ThenValidate(t *testing.T) {
	ctx := context.Background()
	iss, validator, _ := newIssuer(t)
	subject := uuid.NewString()
	session := ownerSession(t, iss, subject)

	tok, wire, err := iss.Issue(ctx, subject, "kai", scope.ScopeVaultReadFood, time.Hour, session)
	require.NoError(t, err)
	assert.Equal(t, subject, tok.SubjectID)
	assert.Equal(t, "kai", tok.AgentID)
	assert.Greater(t, tok.ExpiresAt, tok.IssuedAt)
	assert.NotEmpty(t, tok.TokenID)

	result := validator.Validate(ctx, wire, scope.ScopeVaultReadFood)
	assert.True(t, result.Valid)
	assert.Equal(t, tok.TokenID, result.TokenID)
}

func TestIssue_RequiresSession(t *testing.T) {
	ctx := context.Background()
	iss, _, _ := newIssuer(t)
	subject := uuid.NewString()

	_, _, err := iss.Issue(ctx, subject, "kai", scope.ScopeVaultReadFood, time.Hour, "not-a-session")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))

	// A session for a different subject proves nothing about this vault.
	other := ownerSession(t, iss, uuid.NewString())
	_, _, err = iss.Issue(ctx, subject, "kai", scope.ScopeVaultReadFood, time.Hour, other)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestIssue_UnknownScope(t *testing.T) {
	ctx := context.Background()
	iss, _, _ := newIssuer(t)
	subject := uuid.NewString()
	session := ownerSession(t, iss, subject)

	_, _, err := iss.Issue(ctx, subject, "kai", scope.Scope("vault.read.passwords"), time.Hour, session)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnknownScope))
}

func TestIssue_SessionScopeNotIssuable(t *testing.T) {
	ctx := context.Background()
	iss, _, _ := newIssuer(t)
	subject := uuid.NewString()
	session := ownerSession(t, iss, subject)

	_, _, err := iss.Issue(ctx, subject, "kai", token.SessionScope, time.Hour, session)
	assert.Error(t, err)
}

func TestIssue_AgentManifestEnforced(t *testing.T) {
	ctx := context.Background()
	iss, _, _ := newIssuer(t)
	subject := uuid.NewString()
	session := ownerSession(t, iss, subject)

	// kai's manifest does not cover journal access.
	_, _, err := iss.Issue(ctx, subject, "kai", scope.ScopeVaultReadJournal, time.Hour, session)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))

	_, _, err = iss.Issue(ctx, subject, "nonexistent", scope.ScopeVaultReadFood, time.Hour, session)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestIssue_LifetimeClamped(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	keys, err := token.NewKeyring("issuer-test-secret", "")
	require.NoError(t, err)
	codec := token.NewCodec(keys)
	validator := consent.NewValidator(codec, revocation.NewMemoryStore(maxLifetime))
	iss := New(codec, validator, maxLifetime, sessionTTL, WithClock(func() time.Time { return now }))

	subject := uuid.NewString()
	session := ownerSession(t, iss, subject)

	tok, _, err := iss.Issue(ctx, subject, "kai", scope.ScopeVaultReadFood, 365*24*time.Hour, session)
	require.NoError(t, err)
	assert.Equal(t, token.Millis(now.Add(maxLifetime)), tok.ExpiresAt)

	// Zero and negative lifetimes get the ceiling too.
	tok, _, err = iss.Issue(ctx, subject, "kai", scope.ScopeVaultReadFood, 0, session)
	require.NoError(t, err)
	assert.Equal(t, token.Millis(now.Add(maxLifetime)), tok.ExpiresAt)
}

func TestIssueSession(t *testing.T) {
	iss, validator, _ := newIssuer(t)
	subject := uuid.NewString()

	tok, wire, err := iss.IssueSession(subject)
	require.NoError(t, err)
	assert.True(t, tok.IsSession())
	assert.NoError(t, validator.VerifySession(context.Background(), wire, subject))
}

func TestIssueApproved_SkipsSessionPrecondition(t *testing.T) {
	ctx := context.Background()
	iss, validator, _ := newIssuer(t)
	subject := uuid.NewString()

	tok, wire, err := iss.IssueApproved(ctx, subject, "kai", scope.ScopeAgentKaiAnalyze, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, scope.ScopeAgentKaiAnalyze, tok.Scope)
	assert.True(t, validator.Validate(ctx, wire, scope.ScopeAgentKaiAnalyze).Valid)

	// The trusted path still refuses scopes outside the agent's manifest.
	_, _, err = iss.IssueApproved(ctx, subject, "kai", scope.ScopeVaultReadJournal, time.Hour)
	assert.Error(t, err)
}

func TestIssue_RecordsAuditTrail(t *testing.T) {
	ctx := context.Background()
	keys, err := token.NewKeyring("issuer-test-secret", "")
	require.NoError(t, err)
	codec := token.NewCodec(keys)
	validator := consent.NewValidator(codec, revocation.NewMemoryStore(maxLifetime))
	auditor := audit.NewPublisher()
	iss := New(codec, validator, maxLifetime, sessionTTL, WithAuditor(auditor))

	subject := uuid.NewString()
	session := ownerSession(t, iss, subject)

	_, _, err = iss.Issue(ctx, subject, "kai", scope.ScopeVaultReadFood, time.Hour, session)
	require.NoError(t, err)

	select {
	case event := <-auditor.Inbox():
		assert.Equal(t, audit.ActionTokenIssued, event.Action)
		assert.Equal(t, subject, event.SubjectID)
		assert.Equal(t, "kai", event.AgentID)
		assert.Equal(t, scope.ScopeVaultReadFood.String(), event.Scope)
		assert.Equal(t, "allowed", event.Decision)
	default:
		t.Fatal("issuance produced no audit event")
	}

	// The workflow's trusted path is audited the same way.
	_, _, err = iss.IssueApproved(ctx, subject, "kai", scope.ScopeVaultWriteFood, time.Hour)
	require.NoError(t, err)

	select {
	case event := <-auditor.Inbox():
		assert.Equal(t, audit.ActionTokenIssued, event.Action)
		assert.Equal(t, scope.ScopeVaultWriteFood.String(), event.Scope)
	default:
		t.Fatal("approved issuance produced no audit event")
	}

	// Refused mints leave no issuance record.
	_, _, err = iss.Issue(ctx, subject, "kai", scope.ScopeVaultReadJournal, time.Hour, session)
	require.Error(t, err)
	select {
	case event := <-auditor.Inbox():
		t.Fatalf("unexpected audit event %q", event.Action)
	default:
	}
}
