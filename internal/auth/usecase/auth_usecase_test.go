package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"tacticsboard-auth/internal/auth/config"
	"tacticsboard-auth/internal/auth/domain/model"
	"tacticsboard-auth/internal/auth/domain/repository"
	"tacticsboard-auth/internal/auth/usecase"
	apperrors "tacticsboard-auth/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type AuthUsecaseTestSuite struct {
	suite.Suite
	users     *mockUserRepository
	sessions  *mockSessionManager
	blacklist *mockTokenBlacklist
	tokenSvc  *mockTokenService
	usecase   *usecase.AuthUsecase
	config    *config.Config
}

func (suite *AuthUsecaseTestSuite) SetupTest() {
	suite.users = &mockUserRepository{}
	suite.sessions = &mockSessionManager{}
	suite.blacklist = &mockTokenBlacklist{}
	suite.tokenSvc = &mockTokenService{}
	suite.config = &config.Config{
		JWTSecretKey:    "test-secret-key",
		JWTIssuer:       "test-issuer",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 168 * time.Hour,
	}

	suite.usecase = usecase.NewAuthUsecase(suite.users, suite.sessions, suite.blacklist, suite.tokenSvc, suite.config)
}

// isOpaqueToken matches the generated refresh credential without pinning its
// random value.
func isOpaqueToken(token string) bool {
	return len(token) == 40
}

func (suite *AuthUsecaseTestSuite) TestRegister_Success() {
	// Arrange
	ctx := context.Background()
	email := "coach@example.com"
	password := "Sup3rSecret"
	session := &model.Session{ID: "session-123", UserID: "user-123"}

	suite.users.On("GetUserByEmail", ctx, email).Return(nil, apperrors.ErrUserNotFound)
	suite.users.On("CreateUser", ctx, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == email && u.Role == model.RoleCoach && u.PasswordHash != "" && u.PasswordHash != password
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.User).ID = "user-123"
	}).Return(nil)
	suite.sessions.On("CreateSession", ctx, "user-123", mock.MatchedBy(isOpaqueToken),
		mock.AnythingOfType("time.Time"), "10.0.0.1", "ua-test").Return(session, nil)
	suite.tokenSvc.On("GenerateToken", ctx, "user-123", email, model.RoleCoach, "session-123").Return("access-token", nil)

	// Act
	user, pair, err := suite.usecase.Register(ctx, usecase.RegisterRequest{
		Email:     email,
		Password:  password,
		FirstName: "Jordan",
		IPAddress: "10.0.0.1",
		UserAgent: "ua-test",
	})

	// Assert
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), email, user.Email)
	assert.Equal(suite.T(), model.RoleCoach, user.Role)
	assert.Empty(suite.T(), user.PasswordHash)
	assert.Equal(suite.T(), "access-token", pair.AccessToken)
	assert.True(suite.T(), isOpaqueToken(pair.RefreshToken))
	assert.Equal(suite.T(), int64(900), pair.ExpiresIn)

	suite.users.AssertExpectations(suite.T())
	suite.sessions.AssertExpectations(suite.T())
	suite.tokenSvc.AssertExpectations(suite.T())
}

func (suite *AuthUsecaseTestSuite) TestRegister_NormalizesEmail() {
	// Arrange
	ctx := context.Background()
	session := &model.Session{ID: "session-123", UserID: "user-123"}

	suite.users.On("GetUserByEmail", ctx, "coach@example.com").Return(nil, apperrors.ErrUserNotFound)
	suite.users.On("CreateUser", ctx, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "coach@example.com"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.User).ID = "user-123"
	}).Return(nil)
	suite.sessions.On("CreateSession", ctx, "user-123", mock.MatchedBy(isOpaqueToken),
		mock.AnythingOfType("time.Time"), "", "").Return(session, nil)
	suite.tokenSvc.On("GenerateToken", ctx, "user-123", "coach@example.com", model.RoleCoach, "session-123").Return("access-token", nil)

	// Act
	user, _, err := suite.usecase.Register(ctx, usecase.RegisterRequest{
		Email:    "Coach@Example.COM",
		Password: "Sup3rSecret",
	})

	// Assert
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "coach@example.com", user.Email)
}

func (suite *AuthUsecaseTestSuite) TestRegister_EmailAlreadyTaken() {
	// Arrange
	ctx := context.Background()
	existing := &model.User{ID: "existing-id", Email: "taken@example.com"}

	suite.users.On("GetUserByEmail", ctx, "taken@example.com").Return(existing, nil)

	// Act
	user, pair, err := suite.usecase.Register(ctx, usecase.RegisterRequest{
		Email:    "taken@example.com",
		Password: "Sup3rSecret",
	})

	// Assert
	assert.ErrorIs(suite.T(), err, usecase.ErrEmailTaken)
	assert.Nil(suite.T(), user)
	assert.Nil(suite.T(), pair)
	suite.users.AssertNotCalled(suite.T(), "CreateUser", mock.Anything, mock.Anything)
}

func (suite *AuthUsecaseTestSuite) TestRegister_InvalidEmailFormat() {
	ctx := context.Background()
	invalidEmails := []string{"invalid-email", "@example.com", "test@", "test.example.com"}

	for _, email := range invalidEmails {
		suite.Run("invalid_email_"+email, func() {
			user, pair, err := suite.usecase.Register(ctx, usecase.RegisterRequest{
				Email:    email,
				Password: "Sup3rSecret",
			})

			assert.ErrorIs(suite.T(), err, usecase.ErrInvalidEmailFormat)
			assert.Nil(suite.T(), user)
			assert.Nil(suite.T(), pair)
		})
	}

	suite.users.AssertNotCalled(suite.T(), "GetUserByEmail", mock.Anything, mock.Anything)
}

func (suite *AuthUsecaseTestSuite) TestRegister_WeakPasswordRejected() {
	ctx := context.Background()

	cases := []struct {
		name     string
		password string
	}{
		{"too short", "Ab1"},
		{"no uppercase", "sup3rsecret"},
		{"no lowercase", "SUP3RSECRET"},
		{"no number", "SuperSecret"},
	}

	for _, tc := range cases {
		suite.Run(tc.name, func() {
			user, pair, err := suite.usecase.Register(ctx, usecase.RegisterRequest{
				Email:    "coach@example.com",
				Password: tc.password,
			})

			assert.Error(suite.T(), err)
			assert.Nil(suite.T(), user)
			assert.Nil(suite.T(), pair)
		})
	}

	suite.users.AssertNotCalled(suite.T(), "CreateUser", mock.Anything, mock.Anything)
}

func (suite *AuthUsecaseTestSuite) TestRegister_AdminRoleRejected() {
	// Arrange: admin accounts cannot be self-assigned through registration.
	ctx := context.Background()

	// Act
	user, pair, err := suite.usecase.Register(ctx, usecase.RegisterRequest{
		Email:    "sneaky@example.com",
		Password: "Sup3rSecret",
		Role:     model.RoleAdmin,
	})

	// Assert
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), user)
	assert.Nil(suite.T(), pair)
	suite.users.AssertNotCalled(suite.T(), "CreateUser", mock.Anything, mock.Anything)
}

func (suite *AuthUsecaseTestSuite) TestRegister_PlayerRoleAccepted() {
	// Arrange
	ctx := context.Background()
	session := &model.Session{ID: "session-123", UserID: "user-123"}

	suite.users.On("GetUserByEmail", ctx, "player@example.com").Return(nil, apperrors.ErrUserNotFound)
	suite.users.On("CreateUser", ctx, mock.MatchedBy(func(u *model.User) bool {
		return u.Role == model.RolePlayer
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.User).ID = "user-123"
	}).Return(nil)
	suite.sessions.On("CreateSession", ctx, "user-123", mock.MatchedBy(isOpaqueToken),
		mock.AnythingOfType("time.Time"), "", "").Return(session, nil)
	suite.tokenSvc.On("GenerateToken", ctx, "user-123", "player@example.com", model.RolePlayer, "session-123").Return("access-token", nil)

	// Act
	user, _, err := suite.usecase.Register(ctx, usecase.RegisterRequest{
		Email:    "player@example.com",
		Password: "Sup3rSecret",
		Role:     model.RolePlayer,
	})

	// Assert
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), model.RolePlayer, user.Role)
}

func (suite *AuthUsecaseTestSuite) TestLogin_Success() {
	// Arrange
	ctx := context.Background()
	password := "Sup3rSecret"
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	user := &model.User{
		ID:           "user-123",
		Email:        "coach@example.com",
		PasswordHash: string(hashed),
		Role:         model.RoleCoach,
	}
	session := &model.Session{ID: "session-123", UserID: user.ID}

	suite.users.On("GetUserByEmail", ctx, user.Email).Return(user, nil)
	suite.sessions.On("CreateSession", ctx, user.ID, mock.MatchedBy(isOpaqueToken),
		mock.AnythingOfType("time.Time"), "10.0.0.1", "ua-test").Return(session, nil)
	suite.tokenSvc.On("GenerateToken", ctx, user.ID, user.Email, user.Role, session.ID).Return("access-token", nil)

	// Act
	resultUser, pair, err := suite.usecase.Login(ctx, usecase.LoginRequest{
		Email:     user.Email,
		Password:  password,
		IPAddress: "10.0.0.1",
		UserAgent: "ua-test",
	})

	// Assert
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), user.ID, resultUser.ID)
	assert.Empty(suite.T(), resultUser.PasswordHash)
	assert.Equal(suite.T(), "access-token", pair.AccessToken)
	assert.True(suite.T(), isOpaqueToken(pair.RefreshToken))
}

func (suite *AuthUsecaseTestSuite) TestLogin_WrongPassword() {
	// Arrange
	ctx := context.Background()
	hashed, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.DefaultCost)
	user := &model.User{ID: "user-123", Email: "coach@example.com", PasswordHash: string(hashed)}

	suite.users.On("GetUserByEmail", ctx, user.Email).Return(user, nil)

	// Act
	resultUser, pair, err := suite.usecase.Login(ctx, usecase.LoginRequest{
		Email:    user.Email,
		Password: "wrong-password",
	})

	// Assert
	assert.ErrorIs(suite.T(), err, apperrors.ErrInvalidCredentials)
	assert.Nil(suite.T(), resultUser)
	assert.Nil(suite.T(), pair)
	suite.sessions.AssertNotCalled(suite.T(), "CreateSession",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AuthUsecaseTestSuite) TestLogin_UnknownUserGetsSameError() {
	// Arrange: an unknown email and a wrong password are indistinguishable
	// to the caller.
	ctx := context.Background()

	suite.users.On("GetUserByEmail", ctx, "nobody@example.com").Return(nil, apperrors.ErrUserNotFound)

	// Act
	_, _, err := suite.usecase.Login(ctx, usecase.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever123X",
	})

	// Assert
	assert.ErrorIs(suite.T(), err, apperrors.ErrInvalidCredentials)
}

func (suite *AuthUsecaseTestSuite) TestRefresh_RotatesSession() {
	// Arrange
	ctx := context.Background()
	oldSession := &model.Session{
		ID:           "session-old",
		UserID:       "user-123",
		RefreshToken: "old-refresh-token",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	newSession := &model.Session{ID: "session-new", UserID: "user-123"}
	user := &model.User{ID: "user-123", Email: "coach@example.com", Role: model.RoleCoach}

	var callOrder []string
	suite.sessions.On("GetSessionByRefreshToken", ctx, "old-refresh-token").Return(oldSession, nil)
	suite.users.On("GetUserByID", ctx, "user-123").Return(user, nil)
	suite.sessions.On("DeleteSession", ctx, "session-old").Run(func(mock.Arguments) {
		callOrder = append(callOrder, "delete")
	}).Return(nil)
	suite.sessions.On("CreateSession", ctx, "user-123", mock.MatchedBy(isOpaqueToken),
		mock.AnythingOfType("time.Time"), "10.0.0.2", "ua-new").Run(func(mock.Arguments) {
		callOrder = append(callOrder, "create")
	}).Return(newSession, nil)
	suite.tokenSvc.On("GenerateToken", ctx, "user-123", user.Email, user.Role, "session-new").Return("new-access-token", nil)

	// Act
	resultUser, pair, err := suite.usecase.Refresh(ctx, "old-refresh-token", "10.0.0.2", "ua-new")

	// Assert
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "user-123", resultUser.ID)
	assert.Equal(suite.T(), "new-access-token", pair.AccessToken)
	assert.NotEqual(suite.T(), "old-refresh-token", pair.RefreshToken)

	// The old session dies before the replacement exists, so the presented
	// token can never be exchanged twice.
	assert.Equal(suite.T(), []string{"delete", "create"}, callOrder)
}

func (suite *AuthUsecaseTestSuite) TestRefresh_UnknownTokenRejected() {
	// Arrange
	ctx := context.Background()

	suite.sessions.On("GetSessionByRefreshToken", ctx, "replayed-token").Return(nil, apperrors.ErrSessionNotFound)

	// Act
	_, _, err := suite.usecase.Refresh(ctx, "replayed-token", "", "")

	// Assert
	assert.ErrorIs(suite.T(), err, usecase.ErrTokenInvalid)
}

func (suite *AuthUsecaseTestSuite) TestRefresh_EmptyTokenRejected() {
	_, _, err := suite.usecase.Refresh(context.Background(), "", "", "")

	assert.ErrorIs(suite.T(), err, usecase.ErrTokenInvalid)
	suite.sessions.AssertNotCalled(suite.T(), "GetSessionByRefreshToken", mock.Anything, mock.Anything)
}

func (suite *AuthUsecaseTestSuite) TestRefresh_DeletedUserInvalidatesSession() {
	// Arrange: account removed while the session still existed.
	ctx := context.Background()
	session := &model.Session{ID: "session-orphan", UserID: "user-gone", RefreshToken: "orphan-token"}

	suite.sessions.On("GetSessionByRefreshToken", ctx, "orphan-token").Return(session, nil)
	suite.users.On("GetUserByID", ctx, "user-gone").Return(nil, apperrors.ErrUserNotFound)
	suite.sessions.On("DeleteSession", ctx, "session-orphan").Return(nil)

	// Act
	_, _, err := suite.usecase.Refresh(ctx, "orphan-token", "", "")

	// Assert
	assert.ErrorIs(suite.T(), err, usecase.ErrTokenInvalid)
	suite.sessions.AssertCalled(suite.T(), "DeleteSession", ctx, "session-orphan")
}

func (suite *AuthUsecaseTestSuite) TestLogout_BlacklistsTokenAndDeletesSession() {
	// Arrange
	ctx := context.Background()
	claims := &repository.Claims{UserID: "user-123", SessionID: "session-123"}

	suite.tokenSvc.On("ValidateToken", ctx, "access-token").Return(claims, nil)
	suite.tokenSvc.On("RemainingLifetime", ctx, "access-token").Return(5*time.Minute, nil)
	suite.blacklist.On("BlacklistToken", ctx, "access-token", 5*time.Minute).Return(nil)
	suite.sessions.On("DeleteSession", ctx, "session-123").Return(nil)

	// Act
	err := suite.usecase.Logout(ctx, "access-token")

	// Assert
	require.NoError(suite.T(), err)
	suite.blacklist.AssertExpectations(suite.T())
	suite.sessions.AssertExpectations(suite.T())
}

func (suite *AuthUsecaseTestSuite) TestLogout_InvalidTokenRejected() {
	// Arrange
	ctx := context.Background()

	suite.tokenSvc.On("ValidateToken", ctx, "garbage").Return(nil, errors.New("token is malformed"))

	// Act
	err := suite.usecase.Logout(ctx, "garbage")

	// Assert
	assert.ErrorIs(suite.T(), err, usecase.ErrTokenInvalid)
	suite.blacklist.AssertNotCalled(suite.T(), "BlacklistToken", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AuthUsecaseTestSuite) TestLogoutAll_EndsEverySession() {
	// Arrange
	ctx := context.Background()
	claims := &repository.Claims{UserID: "user-123", SessionID: "session-123"}

	suite.tokenSvc.On("ValidateToken", ctx, "access-token").Return(claims, nil)
	suite.tokenSvc.On("RemainingLifetime", ctx, "access-token").Return(5*time.Minute, nil)
	suite.blacklist.On("BlacklistToken", ctx, "access-token", 5*time.Minute).Return(nil)
	suite.sessions.On("DeleteUserSessions", ctx, "user-123").Return(nil)

	// Act
	err := suite.usecase.LogoutAll(ctx, "access-token")

	// Assert
	require.NoError(suite.T(), err)
	suite.sessions.AssertExpectations(suite.T())
}

func (suite *AuthUsecaseTestSuite) TestValidateToken_CollapsesErrors() {
	// Arrange
	ctx := context.Background()

	suite.tokenSvc.On("ValidateToken", ctx, "expired-token").Return(nil, errors.New("token has expired"))

	// Act
	claims, err := suite.usecase.ValidateToken(ctx, "expired-token")

	// Assert
	assert.Nil(suite.T(), claims)
	assert.ErrorIs(suite.T(), err, usecase.ErrTokenInvalid)
}

func (suite *AuthUsecaseTestSuite) TestCurrentUser_StripsPasswordHash() {
	// Arrange
	ctx := context.Background()
	user := &model.User{ID: "user-123", Email: "coach@example.com", PasswordHash: "bcrypt-hash"}

	suite.users.On("GetUserByID", ctx, "user-123").Return(user, nil)

	// Act
	got, err := suite.usecase.CurrentUser(ctx, "user-123")

	// Assert
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), got.PasswordHash)
}

func (suite *AuthUsecaseTestSuite) TestListSessions_BlanksRefreshTokens() {
	// Arrange
	ctx := context.Background()
	sessions := []*model.Session{
		{ID: "session-1", UserID: "user-123", RefreshToken: "secret-1"},
		{ID: "session-2", UserID: "user-123", RefreshToken: "secret-2"},
	}

	suite.sessions.On("ListUserSessions", ctx, "user-123").Return(sessions, nil)

	// Act
	got, err := suite.usecase.ListSessions(ctx, "user-123")

	// Assert
	require.NoError(suite.T(), err)
	require.Len(suite.T(), got, 2)
	for _, s := range got {
		assert.Empty(suite.T(), s.RefreshToken)
	}
	// Originals are untouched.
	assert.Equal(suite.T(), "secret-1", sessions[0].RefreshToken)
}

func (suite *AuthUsecaseTestSuite) TestRevokeSession_OwnSession() {
	// Arrange
	ctx := context.Background()
	session := &model.Session{ID: "session-1", UserID: "user-123"}

	suite.sessions.On("GetSession", ctx, "session-1").Return(session, nil)
	suite.sessions.On("DeleteSession", ctx, "session-1").Return(nil)

	// Act + Assert
	require.NoError(suite.T(), suite.usecase.RevokeSession(ctx, "user-123", "session-1"))
	suite.sessions.AssertExpectations(suite.T())
}

func (suite *AuthUsecaseTestSuite) TestRevokeSession_AbsentSessionSucceeds() {
	// Arrange
	ctx := context.Background()

	suite.sessions.On("GetSession", ctx, "already-gone").Return(nil, apperrors.ErrSessionNotFound)

	// Act + Assert
	require.NoError(suite.T(), suite.usecase.RevokeSession(ctx, "user-123", "already-gone"))
	suite.sessions.AssertNotCalled(suite.T(), "DeleteSession", mock.Anything, mock.Anything)
}

func (suite *AuthUsecaseTestSuite) TestRevokeSession_OtherUsersSessionForbidden() {
	// Arrange
	ctx := context.Background()
	session := &model.Session{ID: "session-1", UserID: "user-other"}

	suite.sessions.On("GetSession", ctx, "session-1").Return(session, nil)

	// Act
	err := suite.usecase.RevokeSession(ctx, "user-123", "session-1")

	// Assert
	assert.True(suite.T(), apperrors.IsAuthorization(err))
	suite.sessions.AssertNotCalled(suite.T(), "DeleteSession", mock.Anything, mock.Anything)
}

func TestAuthUsecaseTestSuite(t *testing.T) {
	suite.Run(t, new(AuthUsecaseTestSuite))
}
