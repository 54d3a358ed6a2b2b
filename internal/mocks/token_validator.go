package mocks

import (
	"context"

	"github.com/phrazzld/users-qa/internal/auth"
)

// MockTokenValidator implements the sandbox's token validation for tests.
type MockTokenValidator struct {
	// ValidateTokenFn overrides the default behavior when set.
	ValidateTokenFn func(ctx context.Context, token string) (*auth.Claims, error)

	// Claims and Err are returned when ValidateTokenFn is nil.
	Claims *auth.Claims
	Err    error

	// Tokens records every token passed to ValidateToken.
	Tokens []string
}

// ValidateToken records token and answers from ValidateTokenFn or the
// default values.
func (m *MockTokenValidator) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	m.Tokens = append(m.Tokens, token)
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, token)
	}
	return m.Claims, m.Err
}
