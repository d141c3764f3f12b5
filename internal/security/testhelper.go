package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Test issuer and audience used by NewTestTokenIssuer.
const (
	TestIssuer   = "test-issuer"
	TestAudience = "test-audience"
)

// TestTokenIssuer signs operator tokens with a throwaway ES256 key. For unit tests only.
type TestTokenIssuer struct {
	key *ecdsa.PrivateKey
}

// NewTestTokenIssuer generates a fresh P-256 key pair.
func NewTestTokenIssuer() (*TestTokenIssuer, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &TestTokenIssuer{key: key}, nil
}

// Verifier returns a TokenVerifier for this issuer's key with TestIssuer and TestAudience.
func (i *TestTokenIssuer) Verifier() *TokenVerifier {
	v, _ := NewTokenVerifier(&i.key.PublicKey, TestIssuer, TestAudience)
	return v
}

// Issue signs a token for subject with the given scope that expires after ttl (negative for already expired).
func (i *TestTokenIssuer) Issue(subject, scope string, ttl time.Duration) (string, error) {
	return i.Sign(OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    TestIssuer,
			Audience:  jwt.ClaimStrings{TestAudience},
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		Scope: scope,
	})
}

// Sign signs arbitrary claims with ES256.
func (i *TestTokenIssuer) Sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(i.key)
}
