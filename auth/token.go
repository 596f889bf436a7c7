// Package auth issues and verifies session tokens and decides which
// identities may perform which actions.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"microloan/models"
)

// DefaultTokenTTL is the validity window of an issued session token.
const DefaultTokenTTL = 24 * time.Hour

var (
	ErrMalformed = errors.New("malformed token")
	ErrExpired   = errors.New("token expired")
)

// Identity is the caller proven by a session token.
type Identity struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsManager reports whether the identity holds the manager role.
func (i Identity) IsManager() bool {
	return i.Role == models.RoleManager
}

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a TokenService using secret as the HMAC key.
// A zero ttl selects DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token signing secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue signs a token for id valid from now until now+ttl.
func (s *TokenService) Issue(id Identity) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of raw and returns the identity it
// carries. The returned error is always ErrMalformed or ErrExpired.
func (s *TokenService) Verify(raw string) (Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpired
		}
		return Identity{}, ErrMalformed
	}

	if c.Email == "" || !models.ValidRole(c.Role) {
		return Identity{}, ErrMalformed
	}
	return Identity{Email: c.Email, Role: c.Role}, nil
}
