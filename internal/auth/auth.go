// Package auth verifies the bearer tokens clients present when
// authenticating a websocket session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated principal behind a connection.
type Identity struct {
	UserID   string
	Username string
}

// ErrInvalidToken is returned for any token that fails parsing, signature
// verification, expiry, or issuer/subject checks.
var ErrInvalidToken = errors.New("auth: invalid token")

// Verifier authenticates a bearer token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// claims is the expected shape of a Word Arena access token: subject is the
// user ID, and a custom "username" claim carries the display name.
type claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// JWTVerifier validates HMAC-signed tokens against a fixed signing key and
// issuer, per internal/config's AuthConfig.
type JWTVerifier struct {
	signingKey []byte
	issuer     string
}

// NewJWTVerifier returns a Verifier backed by HS256 tokens.
func NewJWTVerifier(signingKey, issuer string) *JWTVerifier {
	return &JWTVerifier{signingKey: []byte(signingKey), issuer: issuer}
}

func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (*Identity, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if v.issuer != "" && c.Issuer != v.issuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, c.Issuer)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	username := c.Username
	if username == "" {
		username = c.Subject
	}
	return &Identity{UserID: c.Subject, Username: username}, nil
}

// DevVerifier trusts the bearer token as-is, treating it as the user ID.
// It exists for local development and integration tests where no identity
// provider is configured (config.AuthConfig.DevAuthMode).
type DevVerifier struct{}

// NewDevVerifier returns a Verifier that never rejects a non-empty token.
func NewDevVerifier() *DevVerifier {
	return &DevVerifier{}
}

func (v *DevVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	token = strings.TrimPrefix(token, "Bearer ")
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}
	return &Identity{UserID: token, Username: token}, nil
}
