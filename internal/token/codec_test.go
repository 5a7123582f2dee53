package token

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hearth/internal/scope"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	keys, err := NewKeyring("test-master-secret", "")
	require.NoError(t, err)
	return NewCodec(keys)
}

func makeToken() Token {
	now := time.Now()
	return Token{
		SubjectID: uuid.NewString(),
		AgentID:   "kai",
		Scope:     scope.ScopeVaultReadFood,
		IssuedAt:  Millis(now),
		ExpiresAt: Millis(now.Add(time.Hour)),
		TokenID:   uuid.NewString(),
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	tok := makeToken()

	wire, err := codec.Encode(tok)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(wire, "HCT:"))

	decoded, err := codec.Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, tok, decoded)
}

func TestDecode_MalformedFraming(t *testing.T) {
	codec := newTestCodec(t)

	cases := []string{
		"",
		"not-a-token",
		"HCT:",
		"HCT:missing-separator",
		"HCT:.only-signature",
		"HCT:payload.",
		"JWT:abc.def",
	}
	for _, wire := range cases {
		_, err := codec.Decode(wire)
		assert.ErrorIs(t, err, ErrMalformed, "wire=%q", wire)
	}
}

func TestDecode_TruncatedToken(t *testing.T) {
	codec := newTestCodec(t)
	wire, err := codec.Encode(makeToken())
	require.NoError(t, err)

	// Truncating the signature destroys the tag; truncating into the payload
	// destroys the framing. Neither may decode.
	for cut := 1; cut < len(wire); cut += 7 {
		_, err := codec.Decode(wire[:len(wire)-cut])
		assert.Error(t, err)
	}
}

func TestDecode_BitFlip_NeverValid(t *testing.T) {
	codec := newTestCodec(t)
	tok := makeToken()
	wire, err := codec.Encode(tok)
	require.NoError(t, err)

	body := wire[len("HCT:"):]
	for i := 0; i < len(body); i++ {
		flipped := []byte(body)
		flipped[i] ^= 0x01
		mutated := "HCT:" + string(flipped)
		if mutated == wire {
			continue
		}
		_, err := codec.Decode(mutated)
		assert.Error(t, err, "flipped byte %d decoded successfully", i)
	}
}

func TestDecode_SignatureMismatch(t *testing.T) {
	keysA, err := NewKeyring("secret-a", "")
	require.NoError(t, err)
	keysB, err := NewKeyring("secret-b", "")
	require.NoError(t, err)

	wire, err := NewCodec(keysA).Encode(makeToken())
	require.NoError(t, err)

	_, err = NewCodec(keysB).Decode(wire)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestDecode_PreviousKeyGracePeriod(t *testing.T) {
	oldKeys, err := NewKeyring("old-secret", "")
	require.NoError(t, err)
	tok := makeToken()
	wire, err := NewCodec(oldKeys).Encode(tok)
	require.NoError(t, err)

	// After rotation the old secret moves to the previous slot.
	rotated, err := NewKeyring("new-secret", "old-secret")
	require.NoError(t, err)
	decoded, err := NewCodec(rotated).Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, tok, decoded)

	// Once the grace period lapses the previous key is dropped.
	final, err := NewKeyring("new-secret", "")
	require.NoError(t, err)
	_, err = NewCodec(final).Decode(wire)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestDecode_RejectsInvertedLifetime(t *testing.T) {
	codec := newTestCodec(t)
	tok := makeToken()
	tok.ExpiresAt = tok.IssuedAt // violates ExpiresAt > IssuedAt

	wire, err := codec.Encode(tok)
	require.NoError(t, err)
	_, err = codec.Decode(wire)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestToken_Expired(t *testing.T) {
	tok := makeToken()
	now := time.UnixMilli(tok.ExpiresAt)
	assert.False(t, tok.Expired(now))
	assert.True(t, tok.Expired(now.Add(time.Millisecond)))
}
