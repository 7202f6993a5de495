package repository

import (
	"context"
	"time"

	"tacticsboard-auth/internal/auth/domain/model"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService defines the interface for access token operations
type TokenService interface {
	GenerateToken(ctx context.Context, userID, email, role, sessionID string) (string, error)
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// RemainingLifetime returns how long the token stays valid from now.
	// The blacklist uses it as the revocation entry's TTL so the entry
	// disappears exactly when the token would have expired on its own.
	RemainingLifetime(ctx context.Context, tokenString string) (time.Duration, error)
}

// Claims represents JWT claims
type Claims struct {
	UserID    string `json:"userID"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"sessionID,omitempty"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claims satisfy the required role. Admins pass
// every role check.
func (c *Claims) HasRole(role string) bool {
	return c.Role == role || c.Role == model.RoleAdmin
}
