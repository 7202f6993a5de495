package repository

import (
	"context"

	"tacticsboard-auth/internal/auth/domain/model"
)

// UserRepository defines the interface for user account persistence
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
}
