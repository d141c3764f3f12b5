// Package security verifies the operator tokens that guard the account inspection routes.
// Tokens are issued elsewhere (an identity provider or ops tooling); this service only validates them.
package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ScopeAccountsRead grants read access to device listings and the decision audit trail.
const ScopeAccountsRead = "accounts:read"

// ErrInvalidToken is returned when a token is malformed, expired, wrongly signed or lacks the required scope.
var ErrInvalidToken = errors.New("invalid token")

// OperatorClaims holds JWT claims for an operator access token. Scope is space separated.
type OperatorClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// HasScope reports whether scope is one of the space-separated entries in c.Scope.
func (c *OperatorClaims) HasScope(scope string) bool {
	for _, s := range strings.Fields(c.Scope) {
		if s == scope {
			return true
		}
	}
	return false
}

// TokenVerifier validates RS256 or ES256 operator tokens against one public key, issuer and audience.
type TokenVerifier struct {
	publicKey crypto.PublicKey
	issuer    string
	audience  string
}

// NewTokenVerifier returns a verifier for tokens signed by the private half of publicKey.
func NewTokenVerifier(publicKey crypto.PublicKey, issuer, audience string) (*TokenVerifier, error) {
	switch publicKey.(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey:
	default:
		return nil, ErrInvalidKey
	}
	return &TokenVerifier{publicKey: publicKey, issuer: issuer, audience: audience}, nil
}

// Validate parses and validates the token (signature, exp, iss, aud, scope) and returns its subject.
func (v *TokenVerifier) Validate(tokenString string) (subject string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
			return v.publicKey, nil
		}
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); ok {
			return v.publicKey, nil
		}
		return nil, ErrInvalidToken
	},
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" || !claims.HasScope(ScopeAccountsRead) {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
