package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"hearth/internal/scope"
)

// Wire format: "HCT:" + base64url(payload) + "." + base64url(signature).
// The signature covers the exact bytes of the encoded payload segment, never
// a re-serialization, so canonicalization ambiguity cannot arise.
const (
	wirePrefix    = "HCT:"
	wireSeparator = "."
)

// Decode failure modes. Both map to a single caller-visible "invalid token"
// outcome; they are distinguished only for server-side audit logging.
var (
	ErrMalformed    = errors.New("malformed token")
	ErrBadSignature = errors.New("token signature mismatch")
)

// wirePayload is the deterministic serialization of a token. Field order is
// fixed by the struct declaration; encoding/json preserves it.
type wirePayload struct {
	SubjectID string `json:"sub"`
	AgentID   string `json:"agt"`
	Scope     string `json:"scp"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
	TokenID   string `json:"jti"`
}

// Codec encodes, decodes, signs and verifies consent tokens. The signature
// scheme is HMAC-SHA256 over the encoded payload bytes; the keyring seam
// keeps the algorithm swappable without touching callers.
type Codec struct {
	keys *Keyring
}

func NewCodec(keys *Keyring) *Codec {
	return &Codec{keys: keys}
}

// Encode serializes and signs a token into its wire form.
func (c *Codec) Encode(t Token) (string, error) {
	payload, err := json.Marshal(wirePayload{
		SubjectID: t.SubjectID,
		AgentID:   t.AgentID,
		Scope:     t.Scope.String(),
		IssuedAt:  t.IssuedAt,
		ExpiresAt: t.ExpiresAt,
		TokenID:   t.TokenID,
	})
	if err != nil {
		return "", err
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	sig := c.sign([]byte(encoded), c.keys.Active())
	return wirePrefix + encoded + wireSeparator + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Decode parses and authenticates a wire token. Malformed framing or a
// payload that does not round-trip returns ErrMalformed; valid framing with
// a bad authentication tag returns ErrBadSignature.
func (c *Codec) Decode(wire string) (Token, error) {
	body, ok := strings.CutPrefix(wire, wirePrefix)
	if !ok {
		return Token{}, ErrMalformed
	}
	encoded, sigPart, ok := strings.Cut(body, wireSeparator)
	if !ok || encoded == "" || sigPart == "" {
		return Token{}, ErrMalformed
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return Token{}, ErrMalformed
	}
	if !c.verify([]byte(encoded), sig) {
		return Token{}, ErrBadSignature
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Token{}, ErrMalformed
	}
	var p wirePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Token{}, ErrMalformed
	}
	if p.SubjectID == "" || p.AgentID == "" || p.Scope == "" || p.TokenID == "" {
		return Token{}, ErrMalformed
	}
	if p.ExpiresAt <= p.IssuedAt {
		return Token{}, ErrMalformed
	}
	return Token{
		SubjectID: p.SubjectID,
		AgentID:   p.AgentID,
		Scope:     scope.Scope(p.Scope),
		IssuedAt:  p.IssuedAt,
		ExpiresAt: p.ExpiresAt,
		TokenID:   p.TokenID,
	}, nil
}

func (c *Codec) sign(msg, key []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

// verify checks the tag against every key in the ring. hmac.Equal is
// constant-time, so tag comparison leaks no timing signal.
func (c *Codec) verify(msg, sig []byte) bool {
	for _, key := range c.keys.Keys() {
		if hmac.Equal(sig, c.sign(msg, key)) {
			return true
		}
	}
	return false
}
