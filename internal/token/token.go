// Package token issues and validates signed, time-limited identity tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// Validation failures. Expiry is reported separately so transports can
// distinguish a stale session from a forged token in logs; both map to 401.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Service signs and verifies HMAC JWTs for a single symmetric key.
type Service struct {
	key    []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// New constructs a token service. algorithm must name an HMAC signing method
// (HS256, HS384, HS512); anything else is rejected to keep the key symmetric.
func New(secret, algorithm string, ttl time.Duration) (*Service, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("algorithm %q is not an HMAC method", algorithm)
	}
	if ttl <= 0 {
		return nil, errors.New("non-positive token ttl")
	}
	return &Service{key: []byte(secret), method: method, ttl: ttl}, nil
}

// TTL returns the configured access-token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue creates a signed token for the given subject, expiring at now+ttl.
func (s *Service) Issue(subject uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.key)
	return signed, exp, err
}

// Validate verifies signature, signing method and expiry, and returns the
// token subject. Tokens signed with any method other than the configured one
// are rejected regardless of key validity.
func (s *Service) Validate(signed string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(signed, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != s.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrExpiredToken
		}
		return uuid.Nil, ErrInvalidToken
	}
	if !parsed.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
