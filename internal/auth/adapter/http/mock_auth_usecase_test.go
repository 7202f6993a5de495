package http_test

import (
	"context"
	"time"

	"tacticsboard-auth/internal/auth/domain/model"
	"tacticsboard-auth/internal/auth/domain/repository"
	"tacticsboard-auth/internal/auth/usecase"

	"github.com/stretchr/testify/mock"
)

// mockAuthUsecase is a shared mock type for the AuthUsecaseInterface
type mockAuthUsecase struct {
	mock.Mock
}

func (m *mockAuthUsecase) Register(ctx context.Context, req usecase.RegisterRequest) (*model.User, *usecase.TokenPair, error) {
	args := m.Called(ctx, req)
	var user *model.User
	if args.Get(0) != nil {
		user = args.Get(0).(*model.User)
	}
	var pair *usecase.TokenPair
	if args.Get(1) != nil {
		pair = args.Get(1).(*usecase.TokenPair)
	}
	return user, pair, args.Error(2)
}

func (m *mockAuthUsecase) Login(ctx context.Context, req usecase.LoginRequest) (*model.User, *usecase.TokenPair, error) {
	args := m.Called(ctx, req)
	var user *model.User
	if args.Get(0) != nil {
		user = args.Get(0).(*model.User)
	}
	var pair *usecase.TokenPair
	if args.Get(1) != nil {
		pair = args.Get(1).(*usecase.TokenPair)
	}
	return user, pair, args.Error(2)
}

func (m *mockAuthUsecase) Refresh(ctx context.Context, refreshToken, ipAddress, userAgent string) (*model.User, *usecase.TokenPair, error) {
	args := m.Called(ctx, refreshToken, ipAddress, userAgent)
	var user *model.User
	if args.Get(0) != nil {
		user = args.Get(0).(*model.User)
	}
	var pair *usecase.TokenPair
	if args.Get(1) != nil {
		pair = args.Get(1).(*usecase.TokenPair)
	}
	return user, pair, args.Error(2)
}

func (m *mockAuthUsecase) Logout(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

func (m *mockAuthUsecase) LogoutAll(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

func (m *mockAuthUsecase) ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error) {
	args := m.Called(ctx, tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Claims), args.Error(1)
}

func (m *mockAuthUsecase) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockAuthUsecase) ListSessions(ctx context.Context, userID string) ([]*model.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Session), args.Error(1)
}

func (m *mockAuthUsecase) RevokeSession(ctx context.Context, userID, sessionID string) error {
	args := m.Called(ctx, userID, sessionID)
	return args.Error(0)
}

// mockTokenBlacklist is a shared mock type for the TokenBlacklistInterface
type mockTokenBlacklist struct {
	mock.Mock
}

func (m *mockTokenBlacklist) BlacklistToken(ctx context.Context, token string, remainingLifetime time.Duration) error {
	args := m.Called(ctx, token, remainingLifetime)
	return args.Error(0)
}

func (m *mockTokenBlacklist) IsTokenBlacklisted(ctx context.Context, token string) bool {
	args := m.Called(ctx, token)
	return args.Bool(0)
}

// mockSessionManager is a shared mock type for the SessionManagerInterface
type mockSessionManager struct {
	mock.Mock
}

func (m *mockSessionManager) CreateSession(ctx context.Context, userID, refreshToken string, expiresAt time.Time, ipAddress, userAgent string) (*model.Session, error) {
	args := m.Called(ctx, userID, refreshToken, expiresAt, ipAddress, userAgent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionManager) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionManager) GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*model.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionManager) DeleteSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *mockSessionManager) DeleteUserSessions(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockSessionManager) ListUserSessions(ctx context.Context, userID string) ([]*model.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Session), args.Error(1)
}

func (m *mockSessionManager) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Ensure the mocks cover their interfaces
var (
	_ usecase.AuthUsecaseInterface    = (*mockAuthUsecase)(nil)
	_ usecase.TokenBlacklistInterface = (*mockTokenBlacklist)(nil)
	_ usecase.SessionManagerInterface = (*mockSessionManager)(nil)
)
