package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"tacticsboard-auth/internal/auth/config"
	"tacticsboard-auth/internal/auth/domain/model"
	"tacticsboard-auth/internal/auth/domain/repository"
	apperrors "tacticsboard-auth/internal/shared/errors"

	"github.com/jaevor/go-nanoid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email is already taken")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrTokenInvalid       = errors.New("token is invalid")
	ErrWeakPassword       = errors.New("password does not meet strength requirements")
)

// Password validation constants
const (
	minPasswordLength = 8
	maxPasswordLength = 128
)

const refreshTokenLength = 40

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AuthUsecaseInterface defines the contract for authentication use cases.
type AuthUsecaseInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*model.User, *TokenPair, error)
	Login(ctx context.Context, req LoginRequest) (*model.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken, ipAddress, userAgent string) (*model.User, *TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
	LogoutAll(ctx context.Context, accessToken string) error
	ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error)
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
	ListSessions(ctx context.Context, userID string) ([]*model.Session, error)
	RevokeSession(ctx context.Context, userID, sessionID string) error
}

// RegisterRequest represents the registration request
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role,omitempty"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginRequest represents the login request
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// TokenPair carries the credentials issued by a successful login or refresh.
// ExpiresIn is the access token lifetime in seconds.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// AuthUsecase implements the authentication logic on top of the session
// manager, the token blacklist and the user store.
type AuthUsecase struct {
	users     repository.UserRepository
	sessions  SessionManagerInterface
	blacklist TokenBlacklistInterface
	tokenSvc  repository.TokenService
	config    *config.Config
}

// NewAuthUsecase creates a new instance of AuthUsecase.
func NewAuthUsecase(
	users repository.UserRepository,
	sessions SessionManagerInterface,
	blacklist TokenBlacklistInterface,
	tokenSvc repository.TokenService,
	cfg *config.Config,
) *AuthUsecase {
	return &AuthUsecase{
		users:     users,
		sessions:  sessions,
		blacklist: blacklist,
		tokenSvc:  tokenSvc,
		config:    cfg,
	}
}

// newRefreshToken generates an opaque refresh credential.
func newRefreshToken() (string, error) {
	generate, err := nanoid.Standard(refreshTokenLength)
	if err != nil {
		return "", fmt.Errorf("refresh token generator: %w", err)
	}
	return generate(), nil
}

// validateEmail validates email format
func (uc *AuthUsecase) validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmailFormat
	}
	return nil
}

// validatePassword validates password strength
func (uc *AuthUsecase) validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", maxPasswordLength)
	}

	hasUpper := regexp.MustCompile(`[A-Z]`).MatchString(password)
	hasLower := regexp.MustCompile(`[a-z]`).MatchString(password)
	hasNumber := regexp.MustCompile(`[0-9]`).MatchString(password)

	if !hasUpper || !hasLower || !hasNumber {
		return ErrWeakPassword
	}
	return nil
}

// validateRole checks a self-assigned role at registration. Admin accounts
// are provisioned out of band, never through the public register endpoint.
func (uc *AuthUsecase) validateRole(role string) (string, error) {
	switch role {
	case "":
		return model.RoleCoach, nil
	case model.RoleCoach, model.RolePlayer:
		return role, nil
	default:
		return "", fmt.Errorf("role must be %q or %q", model.RoleCoach, model.RolePlayer)
	}
}

// issueSession creates a session for the user and mints the matching access
// token. The session is created first so the token can carry its id; if the
// token cannot be minted the session is removed again.
func (uc *AuthUsecase) issueSession(ctx context.Context, user *model.User, ipAddress, userAgent string) (*TokenPair, error) {
	refreshToken, err := newRefreshToken()
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(uc.config.RefreshTokenTTL)
	session, err := uc.sessions.CreateSession(ctx, user.ID, refreshToken, expiresAt, ipAddress, userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	accessToken, err := uc.tokenSvc.GenerateToken(ctx, user.ID, user.Email, user.Role, session.ID)
	if err != nil {
		_ = uc.sessions.DeleteSession(ctx, session.ID)
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(uc.config.AccessTokenTTL.Seconds()),
	}, nil
}

// Register creates a new user account and logs it in.
func (uc *AuthUsecase) Register(ctx context.Context, req RegisterRequest) (*model.User, *TokenPair, error) {
	if err := uc.validateEmail(req.Email); err != nil {
		return nil, nil, err
	}
	if err := uc.validatePassword(req.Password); err != nil {
		return nil, nil, err
	}
	role, err := uc.validateRole(req.Role)
	if err != nil {
		return nil, nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := uc.users.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, nil, ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.users.CreateUser(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	pair, err := uc.issueSession(ctx, user, req.IPAddress, req.UserAgent)
	if err != nil {
		return nil, nil, err
	}

	user.PasswordHash = ""
	return user, pair, nil
}

// Login authenticates a user and issues a fresh session and token pair.
func (uc *AuthUsecase) Login(ctx context.Context, req LoginRequest) (*model.User, *TokenPair, error) {
	if err := uc.validateEmail(req.Email); err != nil {
		return nil, nil, err
	}

	user, err := uc.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, nil, apperrors.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	pair, err := uc.issueSession(ctx, user, req.IPAddress, req.UserAgent)
	if err != nil {
		return nil, nil, err
	}

	user.PasswordHash = ""
	return user, pair, nil
}

// Refresh exchanges a refresh token for a new session and token pair. The
// presented token is single-use: its session is deleted before the
// replacement is created, so a replayed token finds nothing.
func (uc *AuthUsecase) Refresh(ctx context.Context, refreshToken, ipAddress, userAgent string) (*model.User, *TokenPair, error) {
	if refreshToken == "" {
		return nil, nil, ErrTokenInvalid
	}

	session, err := uc.sessions.GetSessionByRefreshToken(ctx, refreshToken)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil, ErrTokenInvalid
		}
		return nil, nil, err
	}

	user, err := uc.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			_ = uc.sessions.DeleteSession(ctx, session.ID)
			return nil, nil, ErrTokenInvalid
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := uc.sessions.DeleteSession(ctx, session.ID); err != nil {
		return nil, nil, err
	}

	pair, err := uc.issueSession(ctx, user, ipAddress, userAgent)
	if err != nil {
		return nil, nil, err
	}

	user.PasswordHash = ""
	return user, pair, nil
}

// Logout ends the session named by the access token and blacklists the
// token for its remaining lifetime, so it is rejected immediately instead
// of staying usable until it expires.
func (uc *AuthUsecase) Logout(ctx context.Context, accessToken string) error {
	claims, err := uc.tokenSvc.ValidateToken(ctx, accessToken)
	if err != nil {
		return ErrTokenInvalid
	}

	remaining, err := uc.tokenSvc.RemainingLifetime(ctx, accessToken)
	if err != nil {
		remaining = 0
	}
	if err := uc.blacklist.BlacklistToken(ctx, accessToken, remaining); err != nil {
		return err
	}

	if claims.SessionID == "" {
		return nil
	}
	return uc.sessions.DeleteSession(ctx, claims.SessionID)
}

// LogoutAll ends every session of the token's user. Only the presented
// access token can be blacklisted; tokens issued to the other sessions stay
// valid until their own expiry, while their refresh tokens die with the
// sessions.
func (uc *AuthUsecase) LogoutAll(ctx context.Context, accessToken string) error {
	claims, err := uc.tokenSvc.ValidateToken(ctx, accessToken)
	if err != nil {
		return ErrTokenInvalid
	}

	remaining, err := uc.tokenSvc.RemainingLifetime(ctx, accessToken)
	if err != nil {
		remaining = 0
	}
	if err := uc.blacklist.BlacklistToken(ctx, accessToken, remaining); err != nil {
		return err
	}

	return uc.sessions.DeleteUserSessions(ctx, claims.UserID)
}

// ValidateToken validates a JWT string
func (uc *AuthUsecase) ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error) {
	claims, err := uc.tokenSvc.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// CurrentUser returns the authenticated user's profile.
func (uc *AuthUsecase) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	user, err := uc.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// ListSessions returns the user's open sessions with the refresh credential
// blanked. Refresh tokens never leave the auth flow that issued them.
func (uc *AuthUsecase) ListSessions(ctx context.Context, userID string) ([]*model.Session, error) {
	sessions, err := uc.sessions.ListUserSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	sanitized := make([]*model.Session, 0, len(sessions))
	for _, s := range sessions {
		copied := *s
		copied.RefreshToken = ""
		sanitized = append(sanitized, &copied)
	}
	return sanitized, nil
}

// RevokeSession deletes one of the user's own sessions. Revoking an absent
// session succeeds; revoking another user's session is an authorization
// error.
func (uc *AuthUsecase) RevokeSession(ctx context.Context, userID, sessionID string) error {
	session, err := uc.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return err
	}

	if session.UserID != userID {
		return apperrors.NewAuthorizationError("session belongs to another user")
	}
	return uc.sessions.DeleteSession(ctx, sessionID)
}

// Ensure AuthUsecase implements AuthUsecaseInterface
var _ AuthUsecaseInterface = (*AuthUsecase)(nil)
