package testutil

import (
	"time"

	"tacticsboard-auth/internal/auth/domain/model"

	"golang.org/x/crypto/bcrypt"
)

// UserFixture provides test data for User model
type UserFixture struct{}

// NewUserFixture creates a new UserFixture instance
func NewUserFixture() *UserFixture {
	return &UserFixture{}
}

// ValidUser returns a valid coach account for testing
func (f *UserFixture) ValidUser() *model.User {
	return f.UserWithPassword("coach@example.com", "Sup3rSecret")
}

// UserWithEmail returns a user with specific email
func (f *UserFixture) UserWithEmail(email string) *model.User {
	return f.UserWithPassword(email, "Sup3rSecret")
}

// UserWithPassword returns a user with specific password
func (f *UserFixture) UserWithPassword(email, password string) *model.User {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return &model.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         model.RoleCoach,
		FirstName:    "Test",
		LastName:     "Coach",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// AdminWithPassword returns an admin account. Registration never produces
// admins, so tests seed them straight into the store.
func (f *UserFixture) AdminWithPassword(email, password string) *model.User {
	user := f.UserWithPassword(email, password)
	user.Role = model.RoleAdmin
	return user
}

// SessionFixture provides test data for Session model
type SessionFixture struct{}

// NewSessionFixture creates a new SessionFixture instance
func NewSessionFixture() *SessionFixture {
	return &SessionFixture{}
}

// SessionForUser returns a live session for the given user
func (f *SessionFixture) SessionForUser(userID string) *model.Session {
	return &model.Session{
		UserID:       userID,
		RefreshToken: "refresh-token-" + userID,
		ExpiresAt:    time.Now().Add(24 * time.Hour),
		IPAddress:    "10.0.0.1",
		UserAgent:    "fixture",
		CreatedAt:    time.Now(),
	}
}

// ExpiredSession returns a session whose refresh window has closed
func (f *SessionFixture) ExpiredSession(userID string) *model.Session {
	session := f.SessionForUser(userID)
	session.ExpiresAt = time.Now().Add(-1 * time.Hour)
	session.CreatedAt = time.Now().Add(-2 * time.Hour)
	return session
}

// TestData provides all fixtures
type TestData struct {
	Users    *UserFixture
	Sessions *SessionFixture
}

// NewTestData creates a new TestData instance with all fixtures
func NewTestData() *TestData {
	return &TestData{
		Users:    NewUserFixture(),
		Sessions: NewSessionFixture(),
	}
}

// Common inputs for validation testing
var (
	ValidEmails = []string{
		"test@example.com",
		"user.name@domain.co.uk",
		"user+tag@example.org",
		"firstname.lastname@company.com",
	}

	InvalidEmails = []string{
		"",
		"invalid-email",
		"@example.com",
		"test@",
		"test space@example.com",
	}

	// Passwords accepted by the registration policy: at least eight
	// characters with an upper, a lower and a digit.
	ValidPasswords = []string{
		"Sup3rSecret",
		"StrongP4ssword",
		"Tactics2024Board",
	}

	InvalidPasswords = []string{
		"",
		"Ab1",
		"alllowercase1",
		"ALLUPPERCASE1",
		"NoDigitsHere",
	}
)
