// Package jwtx mints and verifies the short-lived HS256 access tokens that
// pair with the stored refresh sessions. Access tokens are a pure transform:
// nothing here touches the database.
package jwtx

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL is the default lifetime for access tokens.
const DefaultAccessTokenTTL = 15 * time.Minute

// MinSecretBytes is the minimum HMAC key length after base64 decoding.
const MinSecretBytes = 32

var (
	ErrInvalidToken = errors.New("jwtx: invalid token")
	ErrExpired      = errors.New("jwtx: token expired")
)

// Claims are the access-token claims. Subject is the user ID.
type Claims struct {
	jwt.RegisteredClaims

	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Signer mints and verifies HS256 access tokens with a single shared secret.
type Signer struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

// NewSigner builds a Signer from a base64-encoded secret. The decoded key
// must be at least MinSecretBytes long.
func NewSigner(secretBase64, issuer string, ttl time.Duration) (*Signer, error) {
	key, err := base64.StdEncoding.DecodeString(secretBase64)
	if err != nil {
		return nil, fmt.Errorf("jwtx: secret is not valid base64: %w", err)
	}
	if len(key) < MinSecretBytes {
		return nil, fmt.Errorf("jwtx: secret too short: need >= %d bytes after decoding", MinSecretBytes)
	}
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	return &Signer{key: key, issuer: issuer, ttl: ttl}, nil
}

// Sign mints an access token for the given user identity.
func (s *Signer) Sign(userID, email, role string, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Email: email,
		Role:  role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Verify parses and validates a token, returning its claims.
func (s *Signer) Verify(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.key, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrInvalidToken
	}
	if !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// TTL reports the configured access-token lifetime.
func (s *Signer) TTL() time.Duration { return s.ttl }
