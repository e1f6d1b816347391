package repository

import (
	"context"
	"errors"

	"user-account-service/internal/features/user/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// UserRepository persists accounts. Create and UpdateProfile must reject a
// username that belongs to another row with ErrUsernameTaken, atomically with
// the write. Writes touch only the columns they name.
type UserRepository interface {
	// Create inserts the user and assigns user.ID.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByToken(ctx context.Context, token string) (*models.User, error)
	// List returns all users ordered by id.
	List(ctx context.Context) ([]*models.User, error)
	// UpdateProfile applies the non-nil fields of patch.
	UpdateProfile(ctx context.Context, id int64, patch models.UserPatch) error
	SetStatus(ctx context.Context, id int64, status models.UserStatus) error
}
