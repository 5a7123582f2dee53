package consent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hearth/internal/audit"
	"hearth/internal/revocation"
	"hearth/internal/scope"
	"hearth/internal/token"
)

func newCodec(t *testing.T) *token.Codec {
	t.Helper()
	keys, err := token.NewKeyring("validator-test-secret", "")
	require.NoError(t, err)
	return token.NewCodec(keys)
}

func encodeToken(t *testing.T, codec *token.Codec, tok token.Token) string {
	t.Helper()
	wire, err := codec.Encode(tok)
	require.NoError(t, err)
	return wire
}

func liveToken(subjectID string, sc scope.Scope, now time.Time) token.Token {
	return token.Token{
		SubjectID: subjectID,
		AgentID:   "kai",
		Scope:     sc,
		IssuedAt:  token.Millis(now),
		ExpiresAt: token.Millis(now.Add(time.Hour)),
		TokenID:   uuid.NewString(),
	}
}

func TestValidate_ValidToken(t *testing.T) {
	ctx := context.Background()
	codec := newCodec(t)
	v := NewValidator(codec, revocation.NewMemoryStore(24*time.Hour))

	subject := uuid.NewString()
	tok := liveToken(subject, scope.ScopeVaultReadFood, time.Now())
	wire := encodeToken(t, codec, tok)

	result := v.Validate(ctx, wire, scope.ScopeVaultReadFood)
	assert.True(t, result.Valid)
	assert.Equal(t, subject, result.SubjectID)
	assert.Equal(t, "kai", result.AgentID)
	assert.Equal(t, scope.ScopeVaultReadFood, result.Scope)
	assert.Equal(t, tok.TokenID, result.TokenID)
}

func TestValidate_Malformed(t *testing.T) {
	v := NewValidator(newCodec(t), revocation.NewMemoryStore(24*time.Hour))
	result := v.Validate(context.Background(), "garbage", scope.ScopeVaultReadFood)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonMalformed, result.Reason)
	assert.Empty(t, result.SubjectID)
}

func TestValidate_BadSignature(t *testing.T) {
	codec := newCodec(t)
	otherKeys, err := token.NewKeyring("some-other-secret", "")
	require.NoError(t, err)
	forged := encodeToken(t, token.NewCodec(otherKeys), liveToken(uuid.NewString(), scope.ScopeVaultReadFood, time.Now()))

	v := NewValidator(codec, revocation.NewMemoryStore(24*time.Hour))
	result := v.Validate(context.Background(), forged, scope.ScopeVaultReadFood)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonBadSignature, result.Reason)
}

func TestValidate_Expired(t *testing.T) {
	codec := newCodec(t)
	now := time.Now()
	tok := liveToken(uuid.NewString(), scope.ScopeVaultReadFood, now)
	wire := encodeToken(t, codec, tok)

	// A perfectly signed token is dead the moment the clock passes expiry.
	v := NewValidator(codec, revocation.NewMemoryStore(24*time.Hour),
		WithClock(func() time.Time { return now.Add(2 * time.Hour) }))
	result := v.Validate(context.Background(), wire, scope.ScopeVaultReadFood)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonExpired, result.Reason)
}

func TestValidate_RevokedSubject(t *testing.T) {
	ctx := context.Background()
	codec := newCodec(t)
	store := revocation.NewMemoryStore(24 * time.Hour)
	v := NewValidator(codec, store)

	subject := uuid.NewString()
	now := time.Now()
	before := encodeToken(t, codec, liveToken(subject, scope.ScopeVaultReadFood, now.Add(-time.Minute)))

	require.NoError(t, store.RevokeSubject(ctx, subject, now))

	result := v.Validate(ctx, before, scope.ScopeVaultReadFood)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonRevoked, result.Reason)

	// A token issued after the subject-wide revocation stays valid.
	after := encodeToken(t, codec, liveToken(subject, scope.ScopeVaultReadFood, now.Add(time.Minute)))
	result = v.Validate(ctx, after, scope.ScopeVaultReadFood)
	assert.True(t, result.Valid)
}

func TestValidate_RevokedToken(t *testing.T) {
	ctx := context.Background()
	codec := newCodec(t)
	store := revocation.NewMemoryStore(24 * time.Hour)
	v := NewValidator(codec, store)

	tok := liveToken(uuid.NewString(), scope.ScopeVaultReadFood, time.Now())
	wire := encodeToken(t, codec, tok)
	require.NoError(t, store.RevokeToken(ctx, tok.TokenID, time.Now()))

	result := v.Validate(ctx, wire, scope.ScopeVaultReadFood)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonRevoked, result.Reason)
}

func TestValidate_ScopeMismatch(t *testing.T) {
	ctx := context.Background()
	codec := newCodec(t)
	v := NewValidator(codec, revocation.NewMemoryStore(24*time.Hour))

	wire := encodeToken(t, codec, liveToken(uuid.NewString(), scope.ScopeVaultReadFood, time.Now()))

	result := v.Validate(ctx, wire, scope.ScopeVaultReadFood)
	assert.True(t, result.Valid)

	result = v.Validate(ctx, wire, scope.ScopeVaultWriteFood)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonScopeMismatch, result.Reason)
}

func TestValidate_WildcardGrant(t *testing.T) {
	ctx := context.Background()
	codec := newCodec(t)
	v := NewValidator(codec, revocation.NewMemoryStore(24*time.Hour))

	wire := encodeToken(t, codec, liveToken(uuid.NewString(), scope.ScopeVaultReadAll, time.Now()))

	assert.True(t, v.Validate(ctx, wire, scope.ScopeVaultReadFood).Valid)
	assert.True(t, v.Validate(ctx, wire, scope.ScopeVaultReadJournal).Valid)
	assert.Equal(t, ReasonScopeMismatch, v.Validate(ctx, wire, scope.ScopeVaultWriteFood).Reason)
}

type failingStore struct{}

func (failingStore) RevokeSubject(context.Context, string, time.Time) error { return nil }
func (failingStore) RevokeToken(context.Context, string, time.Time) error   { return nil }
func (failingStore) IsRevoked(context.Context, string, string, int64) (bool, error) {
	return false, errors.New("store timeout")
}

func TestValidate_StoreUnavailable_FailsClosed(t *testing.T) {
	codec := newCodec(t)
	v := NewValidator(codec, failingStore{})

	wire := encodeToken(t, codec, liveToken(uuid.NewString(), scope.ScopeVaultReadFood, time.Now()))
	result := v.Validate(context.Background(), wire, scope.ScopeVaultReadFood)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonStoreUnavailable, result.Reason)
}

func TestVerifySession(t *testing.T) {
	ctx := context.Background()
	codec := newCodec(t)
	v := NewValidator(codec, revocation.NewMemoryStore(24*time.Hour))

	subject := uuid.NewString()
	now := time.Now()
	session := token.Token{
		SubjectID: subject,
		AgentID:   "owner",
		Scope:     token.SessionScope,
		IssuedAt:  token.Millis(now),
		ExpiresAt: token.Millis(now.Add(15 * time.Minute)),
		TokenID:   uuid.NewString(),
	}
	wire := encodeToken(t, codec, session)

	assert.NoError(t, v.VerifySession(ctx, wire, subject))
	assert.Error(t, v.VerifySession(ctx, wire, uuid.NewString()))
	assert.Error(t, v.VerifySession(ctx, "garbage", subject))

	// A scoped consent token is not a session credential.
	consentWire := encodeToken(t, codec, liveToken(subject, scope.ScopeVaultReadFood, now))
	assert.Error(t, v.VerifySession(ctx, consentWire, subject))
}

func TestValidate_RejectionsAudited(t *testing.T) {
	ctx := context.Background()
	codec := newCodec(t)
	auditor := audit.NewPublisher()
	v := NewValidator(codec, revocation.NewMemoryStore(24*time.Hour), WithAuditor(auditor))

	subject := uuid.NewString()
	wire := encodeToken(t, codec, liveToken(subject, scope.ScopeVaultReadFood, time.Now()))

	// Valid checks stay out of the audit trail.
	require.True(t, v.Validate(ctx, wire, scope.ScopeVaultReadFood).Valid)
	select {
	case event := <-auditor.Inbox():
		t.Fatalf("unexpected audit event %q", event.Action)
	default:
	}

	result := v.Validate(ctx, wire, scope.ScopeVaultWriteFood)
	require.False(t, result.Valid)

	select {
	case event := <-auditor.Inbox():
		assert.Equal(t, audit.ActionTokenValidated, event.Action)
		assert.Equal(t, "denied", event.Decision)
		assert.Equal(t, string(ReasonScopeMismatch), event.Reason)
		assert.Equal(t, scope.ScopeVaultWriteFood.String(), event.Scope)
	default:
		t.Fatal("rejected validation produced no audit event")
	}

	result = v.Validate(ctx, "garbage", scope.ScopeVaultReadFood)
	require.False(t, result.Valid)

	select {
	case event := <-auditor.Inbox():
		assert.Equal(t, string(ReasonMalformed), event.Reason)
	default:
		t.Fatal("malformed token produced no audit event")
	}
}
