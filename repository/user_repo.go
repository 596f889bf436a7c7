package repository

import (
	"context"

	"microloan/models"
)

// UserRepository defines the interface for user operations. Lookups return
// nil, nil when no user matches.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.AppUser) error
	GetUserByEmail(ctx context.Context, email string) (*models.AppUser, error)
	GetUserByID(ctx context.Context, id string) (*models.AppUser, error)
	ListUsers(ctx context.Context) ([]*models.AppUser, error)
	UpdateUserRole(ctx context.Context, id, role string) error
	DeleteUser(ctx context.Context, id string) error
}
