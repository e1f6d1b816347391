package service

import (
	"context"

	"user-account-service/internal/features/user/models"
)

type UserService interface {
	CreateUser(ctx context.Context, creds models.Credentials) (*models.User, error)
	GetUsers(ctx context.Context, token string) ([]*models.User, error)
	GetUser(ctx context.Context, id int64, token string) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, token string, patch models.UserPatch) error
	CheckUser(ctx context.Context, creds models.Credentials) (*models.User, error)
	LogoutUser(ctx context.Context, id int64, token string) error
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// UserCache is the read-through cache in front of the repository.
// Implementations return an error on a miss.
type UserCache interface {
	Set(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByToken(ctx context.Context, token string) (*models.User, error)
	Invalidate(ctx context.Context, u *models.User) error
}
