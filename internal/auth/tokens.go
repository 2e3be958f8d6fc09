// Package auth mints and verifies the HS256 tokens that identify patch
// sources (agents, UI users) for the audit trail.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Mint creates a signed token whose subject becomes the audit source for
// every patch applied with it.
func Mint(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("auth secret is not configured")
	}
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(secret))
}

// Verifier validates locally-minted HS256 tokens. Wrapped in a
// middleware.VerifierFunc it plugs into the auth middleware, so an
// OIDC-backed verifier can replace it without touching the handlers.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// VerifiedToken exposes the claims of a validated token.
type VerifiedToken struct {
	claims jwt.MapClaims
}

// Claims unmarshals the claims into v (expects *map[string]interface{}).
func (t *VerifiedToken) Claims(v interface{}) error {
	m, ok := v.(*map[string]interface{})
	if !ok {
		return fmt.Errorf("unsupported claims target %T", v)
	}
	out := make(map[string]interface{}, len(t.claims))
	for k, c := range t.claims {
		out[k] = c
	}
	*m = out
	return nil
}

// Subject returns the sub claim, or empty when absent.
func (t *VerifiedToken) Subject() string {
	if sub, ok := t.claims["sub"].(string); ok {
		return sub
	}
	return ""
}

// Verify parses and validates a raw token string.
func (v *Verifier) Verify(_ context.Context, raw string) (*VerifiedToken, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return &VerifiedToken{claims: claims}, nil
}
