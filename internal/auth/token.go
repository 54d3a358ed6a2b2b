// Package auth mints and verifies the HMAC-signed bearer tokens exchanged
// between the harness client and the sandbox Users API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/users-qa/internal/platform/logger"
)

// MinSecretLength is the shortest accepted signing secret.
const MinSecretLength = 32

// DefaultTokenLifetime bounds how long a minted token stays valid.
const DefaultTokenLifetime = 15 * time.Minute

// Claims describes a verified token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

// TokenService signs and validates HS256 tokens with a shared secret.
type TokenService struct {
	signingKey []byte
	lifetime   time.Duration
	timeFunc   func() time.Time
	clockSkew  time.Duration
}

// NewTokenService returns a service for secret. A zero lifetime means
// DefaultTokenLifetime.
func NewTokenService(secret string, lifetime time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	return &TokenService{
		signingKey: []byte(secret),
		lifetime:   lifetime,
		timeFunc:   time.Now,
		clockSkew:  2 * time.Minute,
	}, nil
}

// WithTimeFunc replaces the clock, for tests.
func (s *TokenService) WithTimeFunc(f func() time.Time) *TokenService {
	cp := *s
	cp.timeFunc = f
	return &cp
}

// GenerateToken creates a signed token for subject, typically a run ID.
func (s *TokenService) GenerateToken(ctx context.Context, subject string) (string, error) {
	now := s.timeFunc()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		ID:        uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		logger.FromContextOrDefault(ctx, slog.Default()).Error("failed to sign token",
			"error", err,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", fmt.Errorf("failed to sign token with HMAC-SHA256: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies tokenString and returns its claims.
func (s *TokenService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	now := s.timeFunc()

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, slog.Default()).Debug("token validation failed", "error", err)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	ret := &Claims{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
		ID:        claims.ID,
	}
	if claims.IssuedAt != nil {
		ret.IssuedAt = claims.IssuedAt.Time
	}
	return ret, nil
}
