package token

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Keyring holds the active signing key plus an optional previous key kept
// for a rotation grace period. Sign always uses the active key; Verify
// accepts either, so tokens minted just before a rotation stay valid until
// they expire naturally.
type Keyring struct {
	active   []byte
	previous []byte
}

const signingKeyLen = 32

// keyInfo namespaces the HKDF derivation so the same master secret can never
// collide with keys derived for other purposes.
var keyInfo = []byte("hearth-consent-token-hmac-v1")

// NewKeyring derives fixed-length signing keys from the configured master
// secrets. previousSecret may be empty when no rotation is in flight.
func NewKeyring(masterSecret, previousSecret string) (*Keyring, error) {
	if masterSecret == "" {
		return nil, fmt.Errorf("master secret must not be empty")
	}
	active, err := deriveKey(masterSecret)
	if err != nil {
		return nil, err
	}
	kr := &Keyring{active: active}
	if previousSecret != "" {
		prev, err := deriveKey(previousSecret)
		if err != nil {
			return nil, err
		}
		kr.previous = prev
	}
	return kr, nil
}

func deriveKey(secret string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, keyInfo)
	key := make([]byte, signingKeyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	return key, nil
}

// Keys returns the verification keys in preference order.
func (k *Keyring) Keys() [][]byte {
	keys := [][]byte{k.active}
	if k.previous != nil {
		keys = append(keys, k.previous)
	}
	return keys
}

// Active returns the signing key for newly minted tokens.
func (k *Keyring) Active() []byte {
	return k.active
}
