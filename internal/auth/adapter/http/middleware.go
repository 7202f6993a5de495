package http

import (
	"context"
	"strings"
	"time"

	"tacticsboard-auth/internal/auth/domain/repository"
	"tacticsboard-auth/internal/auth/usecase"
	"tacticsboard-auth/internal/shared/contextkeys"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// AuthMiddleware provides authentication middleware for Fiber. Protect is
// the request authenticator: it accepts a request only after the token is
// extracted, its signature and expiry verified, and the blacklist confirms
// it was not revoked, in that order. The blacklist never substitutes for
// signature verification, it only vetoes an otherwise valid token.
type AuthMiddleware struct {
	usecase      usecase.AuthUsecaseInterface
	blacklist    usecase.TokenBlacklistInterface
	accessCookie string
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(uc usecase.AuthUsecaseInterface, blacklist usecase.TokenBlacklistInterface, accessCookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		usecase:      uc,
		blacklist:    blacklist,
		accessCookie: accessCookieName,
	}
}

// SecurityHeaders adds security headers
func (m *AuthMiddleware) SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	}
}

// RateLimiter creates rate limiting middleware for auth endpoints
func (m *AuthMiddleware) RateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               10,              // 10 requests
		Expiration:        1 * time.Minute, // per minute
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.Get("X-Forwarded-For", c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded. Please try again later.",
			})
		},
	})
}

// RequestID middleware
func (m *AuthMiddleware) RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     "X-Request-ID",
		ContextKey: string(contextkeys.RequestIDKey),
	})
}

// Protect returns middleware that requires a valid, non-revoked token.
func (m *AuthMiddleware) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := m.extractToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		claims, err := m.usecase.ValidateToken(c.Context(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		if m.blacklist.IsTokenBlacklisted(c.Context(), token) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token has been revoked",
			})
		}

		m.attachPrincipal(c, claims, token)
		return c.Next()
	}
}

// RequireRole returns middleware that requires a valid token carrying the
// given role. Admins pass every role check.
func (m *AuthMiddleware) RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := m.extractToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		claims, err := m.usecase.ValidateToken(c.Context(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		if m.blacklist.IsTokenBlacklisted(c.Context(), token) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token has been revoked",
			})
		}

		if !claims.HasRole(role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		m.attachPrincipal(c, claims, token)
		return c.Next()
	}
}

// OptionalAuth middleware that optionally validates authentication
func (m *AuthMiddleware) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := m.extractToken(c)
		if err != nil || token == "" {
			return c.Next() // Continue without authentication
		}

		claims, err := m.usecase.ValidateToken(c.Context(), token)
		if err != nil {
			// Invalid token, but continue without authentication
			return c.Next()
		}
		if m.blacklist.IsTokenBlacklisted(c.Context(), token) {
			return c.Next()
		}

		m.attachPrincipal(c, claims, token)
		return c.Next()
	}
}

// attachPrincipal stores the authenticated principal in the request context
// and in Fiber locals for handlers that prefer them.
func (m *AuthMiddleware) attachPrincipal(c *fiber.Ctx, claims *repository.Claims, token string) {
	ctx := c.UserContext()
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, contextkeys.UserEmailKey, claims.Email)
	ctx = context.WithValue(ctx, contextkeys.UserRoleKey, claims.Role)
	if claims.SessionID != "" {
		ctx = context.WithValue(ctx, contextkeys.SessionIDKey, claims.SessionID)
	}
	ctx = context.WithValue(ctx, contextkeys.TokenKey, token)
	c.SetUserContext(ctx)

	c.Locals("user_id", claims.UserID)
	c.Locals("user_email", claims.Email)
	c.Locals("user_role", claims.Role)
	c.Locals("session_id", claims.SessionID)
	c.Locals("access_token", token)
	c.Locals("authenticated", true)
}

// extractToken extracts the token from Authorization header or cookie
func (m *AuthMiddleware) extractToken(c *fiber.Ctx) (string, error) {
	// Try Authorization header first
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return strings.TrimPrefix(authHeader, "Bearer "), nil
		}
	}

	// Try cookie
	token := c.Cookies(m.accessCookie)
	if token != "" {
		return token, nil
	}

	// Try query parameter (for WebSocket connections)
	token = c.Query("token")
	if token != "" {
		return token, nil
	}

	return "", fiber.NewError(fiber.StatusUnauthorized, "No authentication token found")
}

// GetUserID helper function to get user ID from context
func GetUserID(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals("user_id").(string)
	return userID, ok
}

// GetUserEmail helper function to get user email from context
func GetUserEmail(c *fiber.Ctx) (string, bool) {
	email, ok := c.Locals("user_email").(string)
	return email, ok
}

// GetUserRole helper function to get user role from context
func GetUserRole(c *fiber.Ctx) (string, bool) {
	role, ok := c.Locals("user_role").(string)
	return role, ok
}

// GetAccessToken helper function to get the raw bearer token from context
func GetAccessToken(c *fiber.Ctx) (string, bool) {
	token, ok := c.Locals("access_token").(string)
	return token, ok
}

// IsAuthenticated helper function to check if user is authenticated
func IsAuthenticated(c *fiber.Ctx) bool {
	auth, ok := c.Locals("authenticated").(bool)
	return ok && auth
}
