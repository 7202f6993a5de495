package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tacticsboard-auth/internal/auth/domain/model"
	"tacticsboard-auth/internal/auth/domain/repository"
	apperrors "tacticsboard-auth/internal/shared/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository is the Postgres-backed user account store.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ repository.UserRepository = (*UserRepository)(nil)

// CreateUser inserts the user, generating id and timestamps when unset.
func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = model.RoleCoach
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return durableErr("create user", err)
	}
	return nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %q: %w", email, apperrors.ErrUserNotFound)
	}
	if err != nil {
		return nil, durableErr("get user by email", err)
	}
	return &user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %q: %w", id, apperrors.ErrUserNotFound)
	}
	if err != nil {
		return nil, durableErr("get user by id", err)
	}
	return &user, nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return durableErr("update user", err)
	}
	return nil
}
