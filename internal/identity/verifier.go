package identity

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	dErrors "hearth/pkg/domain-errors"
)

// Verifier checks an external bearer identity, e.g. a federated login
// assertion. The core calls it exactly once per subject lifecycle: when
// minting the very first owner session token.
type Verifier interface {
	Verify(ctx context.Context, assertion string) (subjectID string, err error)
}

// AssertionClaims are the claims we require from the federated identity
// provider's assertion.
type AssertionClaims struct {
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256-signed identity assertions from the
// configured federation partner.
type JWTVerifier struct {
	sharedKey []byte
	issuer    string
	audience  string
}

func NewJWTVerifier(sharedKey, issuer, audience string) *JWTVerifier {
	return &JWTVerifier{
		sharedKey: []byte(sharedKey),
		issuer:    issuer,
		audience:  audience,
	}
}

func (v *JWTVerifier) Verify(_ context.Context, assertion string) (string, error) {
	parsed, err := jwt.ParseWithClaims(assertion, &AssertionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.sharedKey, nil
	},
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "identity assertion has expired")
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid identity assertion")
	}

	claims, ok := parsed.Claims.(*AssertionClaims)
	if !ok || !parsed.Valid {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid identity assertion claims")
	}
	if claims.Subject == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "identity assertion carries no subject")
	}
	return claims.Subject, nil
}
