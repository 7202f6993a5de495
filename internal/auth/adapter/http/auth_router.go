package http

import (
	"errors"
	"time"

	"tacticsboard-auth/internal/auth/config"
	"tacticsboard-auth/internal/auth/domain/model"
	"tacticsboard-auth/internal/auth/usecase"
	apperrors "tacticsboard-auth/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
)

// AuthHTTPHandler handles HTTP requests for authentication
type AuthHTTPHandler struct {
	usecase  usecase.AuthUsecaseInterface
	sessions usecase.SessionManagerInterface
	config   *config.Config
}

// NewAuthHTTPHandler creates a new authentication HTTP handler
func NewAuthHTTPHandler(
	uc usecase.AuthUsecaseInterface,
	sessions usecase.SessionManagerInterface,
	cfg *config.Config,
) *AuthHTTPHandler {
	return &AuthHTTPHandler{
		usecase:  uc,
		sessions: sessions,
		config:   cfg,
	}
}

// authResponse is the body returned by register, login and refresh.
type authResponse struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    int64       `json:"expiresIn"`
}

// SetupAuthRoutesWithMiddleware sets up authentication routes with middleware
func (h *AuthHTTPHandler) SetupAuthRoutesWithMiddleware(router fiber.Router, middleware *AuthMiddleware) {
	// Public routes (no authentication required)
	public := router.Group("/", middleware.RateLimiter())
	public.Post("/register", h.Register)
	public.Post("/login", h.Login)
	public.Post("/refresh", h.Refresh)

	// Protected routes (authentication required)
	protected := router.Group("/", middleware.Protect())
	protected.Post("/logout", h.Logout)
	protected.Post("/logout-all", h.LogoutAll)
	protected.Get("/me", h.GetCurrentUser)
	protected.Get("/sessions", h.ListSessions)
	protected.Delete("/sessions/:sessionId", h.RevokeSession)

	// Admin routes (operational maintenance)
	admin := router.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.Post("/cleanup", h.CleanupSessions)
}

// Register handles user registration
func (h *AuthHTTPHandler) Register(c *fiber.Ctx) error {
	var req usecase.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	req.IPAddress = c.IP()
	req.UserAgent = c.Get("User-Agent")

	user, pair, err := h.usecase.Register(c.Context(), req)
	if err != nil {
		if errors.Is(err, usecase.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Email already registered",
			})
		}
		return h.errorResponse(c, err, fiber.StatusBadRequest)
	}

	h.setAuthCookies(c, pair)

	return c.Status(fiber.StatusCreated).JSON(authResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// Login handles user login
func (h *AuthHTTPHandler) Login(c *fiber.Ctx) error {
	var req usecase.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	req.IPAddress = c.IP()
	req.UserAgent = c.Get("User-Agent")

	user, pair, err := h.usecase.Login(c.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid email or password",
			})
		}
		return h.errorResponse(c, err, fiber.StatusUnauthorized)
	}

	h.setAuthCookies(c, pair)

	return c.JSON(authResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// Refresh exchanges a refresh token for a new token pair. The token is read
// from the request body, falling back to the refresh cookie for browser
// clients.
func (h *AuthHTTPHandler) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	// Body is optional, browser clients rely on the cookie fallback.
	_ = c.BodyParser(&req)
	if req.RefreshToken == "" {
		req.RefreshToken = c.Cookies(h.config.CookieName)
	}
	if req.RefreshToken == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Refresh token required",
		})
	}

	user, pair, err := h.usecase.Refresh(c.Context(), req.RefreshToken, c.IP(), c.Get("User-Agent"))
	if err != nil {
		if errors.Is(err, usecase.ErrTokenInvalid) {
			h.clearAuthCookies(c)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid refresh token",
			})
		}
		return h.errorResponse(c, err, fiber.StatusUnauthorized)
	}

	h.setAuthCookies(c, pair)

	return c.JSON(authResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// Logout ends the current session and revokes its access token.
func (h *AuthHTTPHandler) Logout(c *fiber.Ctx) error {
	token, ok := GetAccessToken(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	if err := h.usecase.Logout(c.Context(), token); err != nil {
		if errors.Is(err, usecase.ErrTokenInvalid) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}
		return h.errorResponse(c, err, fiber.StatusInternalServerError)
	}

	h.clearAuthCookies(c)

	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

// LogoutAll ends every session of the current user.
func (h *AuthHTTPHandler) LogoutAll(c *fiber.Ctx) error {
	token, ok := GetAccessToken(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	if err := h.usecase.LogoutAll(c.Context(), token); err != nil {
		if errors.Is(err, usecase.ErrTokenInvalid) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}
		return h.errorResponse(c, err, fiber.StatusInternalServerError)
	}

	h.clearAuthCookies(c)

	return c.JSON(fiber.Map{
		"message": "Logged out from all sessions",
	})
}

// GetCurrentUser returns current user information
func (h *AuthHTTPHandler) GetCurrentUser(c *fiber.Ctx) error {
	userID, ok := GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	user, err := h.usecase.CurrentUser(c.Context(), userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		return h.errorResponse(c, err, fiber.StatusInternalServerError)
	}

	return c.JSON(user)
}

// ListSessions returns the current user's open sessions.
func (h *AuthHTTPHandler) ListSessions(c *fiber.Ctx) error {
	userID, ok := GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	sessions, err := h.usecase.ListSessions(c.Context(), userID)
	if err != nil {
		return h.errorResponse(c, err, fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// RevokeSession deletes one of the current user's sessions by id.
func (h *AuthHTTPHandler) RevokeSession(c *fiber.Ctx) error {
	userID, ok := GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Session ID required",
		})
	}

	if err := h.usecase.RevokeSession(c.Context(), userID, sessionID); err != nil {
		if apperrors.IsAuthorization(err) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Session belongs to another user",
			})
		}
		return h.errorResponse(c, err, fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{
		"message": "Session revoked",
	})
}

// CleanupSessions removes expired session rows from the durable store
// immediately instead of waiting for the periodic sweep. Admin only.
func (h *AuthHTTPHandler) CleanupSessions(c *fiber.Ctx) error {
	count, err := h.sessions.CleanupExpiredSessions(c.Context())
	if err != nil {
		return h.errorResponse(c, err, fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{
		"removed": count,
	})
}

// errorResponse maps usecase errors onto HTTP statuses. A durable store
// failure means both tiers failed, which is the one condition surfaced as
// unavailability.
func (h *AuthHTTPHandler) errorResponse(c *fiber.Ctx, err error, fallback int) error {
	switch {
	case errors.Is(err, apperrors.ErrDurableStore):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Service temporarily unavailable",
		})
	case apperrors.IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		return c.Status(fallback).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}

// Helper methods

func (h *AuthHTTPHandler) setAuthCookies(c *fiber.Ctx, pair *usecase.TokenPair) {
	c.Cookie(&fiber.Cookie{
		Name:     h.config.AccessCookieName,
		Value:    pair.AccessToken,
		Path:     h.config.CookiePath,
		Domain:   h.config.CookieDomain,
		MaxAge:   int(h.config.AccessTokenTTL.Seconds()),
		Secure:   h.config.CookieSecure,
		HTTPOnly: h.config.CookieHTTPOnly,
		SameSite: h.config.CookieSameSite,
		Expires:  time.Now().Add(h.config.AccessTokenTTL),
	})
	c.Cookie(&fiber.Cookie{
		Name:     h.config.CookieName,
		Value:    pair.RefreshToken,
		Path:     h.config.CookiePath,
		Domain:   h.config.CookieDomain,
		MaxAge:   int(h.config.RefreshTokenTTL.Seconds()),
		Secure:   h.config.CookieSecure,
		HTTPOnly: true,
		SameSite: h.config.CookieSameSite,
		Expires:  time.Now().Add(h.config.RefreshTokenTTL),
	})
}

func (h *AuthHTTPHandler) clearAuthCookies(c *fiber.Ctx) {
	for _, name := range []string{h.config.AccessCookieName, h.config.CookieName} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     h.config.CookiePath,
			Domain:   h.config.CookieDomain,
			MaxAge:   -1,
			Secure:   h.config.CookieSecure,
			HTTPOnly: h.config.CookieHTTPOnly,
			SameSite: h.config.CookieSameSite,
			Expires:  time.Now().Add(-1 * time.Hour),
		})
	}
}
