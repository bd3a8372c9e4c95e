package service

import (
	"fmt"
	"time"

	"github.com/elevare/elevare-backend-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer = "elevare-api"
	tokenType   = "access"
)

// JWTClaims represents the custom claims in access tokens.
type JWTClaims struct {
	Sub  string      `json:"sub"`
	Role domain.Role `json:"role"`
	Type string      `json:"type"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a token issuer. The secret is fixed for the process
// lifetime; changing it invalidates every outstanding token.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the user.
func (t *Tokens) Issue(u *domain.User) (string, error) {
	now := t.now()
	claims := JWTClaims{
		Sub:  u.ID,
		Role: u.Role,
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			Issuer:    tokenIssuer,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token. Every failure is reported as the
// same *domain.ErrUnauthorized.
func (t *Tokens) Verify(raw string) (*JWTClaims, error) {
	if raw == "" {
		return nil, &domain.ErrUnauthorized{}
	}
	token, err := jwt.ParseWithClaims(raw, &JWTClaims{}, func(tk *jwt.Token) (any, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tk.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, &domain.ErrUnauthorized{}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.Type != tokenType || claims.Sub == "" {
		return nil, &domain.ErrUnauthorized{}
	}
	return claims, nil
}
