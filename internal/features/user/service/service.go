package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/google/uuid"

	apperrors "user-account-service/internal/common/errors"
	"user-account-service/internal/common/logger"
	"user-account-service/internal/common/validation"
	"user-account-service/internal/features/user/models"
	"user-account-service/internal/features/user/repository"
)

type userService struct {
	repo     repository.UserRepository
	cache    UserCache
	now      func() time.Time
	newToken func() string
}

type Option func(*userService)

// WithClock overrides the time source used for creation dates.
func WithClock(now func() time.Time) Option {
	return func(s *userService) { s.now = now }
}

// WithTokenGenerator overrides how session tokens are minted.
func WithTokenGenerator(gen func() string) Option {
	return func(s *userService) { s.newToken = gen }
}

// NewUserService builds the service. cache may be nil.
func NewUserService(repo repository.UserRepository, cache UserCache, opts ...Option) UserService {
	s := &userService{
		repo:     repo,
		cache:    cache,
		now:      time.Now,
		newToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *userService) CreateUser(ctx context.Context, creds models.Credentials) (*models.User, error) {
	if err := validation.ValidateUsername(creds.Username); err != nil {
		return nil, apperrors.NewValidationError("username", err.Error())
	}
	if err := validation.ValidatePassword(creds.Password); err != nil {
		return nil, apperrors.NewValidationError("password", err.Error())
	}

	if _, err := s.repo.GetByUsername(ctx, creds.Username); err == nil {
		return nil, apperrors.NewConflictError("user", msgUsernameNotUnique)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperrors.NewDatabaseError("get user by username", err)
	}

	user := &models.User{
		Username:     creds.Username,
		Password:     creds.Password,
		Token:        s.newToken(),
		Status:       models.StatusOnline,
		CreationDate: s.now().UTC(),
	}

	// the store re-checks uniqueness atomically; a concurrent winner lands here
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, apperrors.NewConflictError("user", msgUsernameNotUnique)
		}
		return nil, apperrors.NewDatabaseError("create user", err)
	}

	s.cacheSet(ctx, user)

	logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("User created")

	return user, nil
}

func (s *userService) GetUsers(ctx context.Context, token string) ([]*models.User, error) {
	if _, err := s.Authenticate(ctx, token); err != nil {
		return nil, err
	}

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list users", err)
	}
	return users, nil
}

func (s *userService) GetUser(ctx context.Context, id int64, token string) (*models.User, error) {
	if _, err := s.Authenticate(ctx, token); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if u, err := s.cache.GetByID(ctx, id); err == nil && u != nil {
			logger.Debug().Int64("user_id", id).Msg("User served from cache")
			return u, nil
		}
	}

	user, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, user)
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, id int64, token string, patch models.UserPatch) error {
	if _, err := s.Authenticate(ctx, token); err != nil {
		return err
	}

	user, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}

	if patch.Username != nil {
		if *patch.Username == user.Username {
			patch.Username = nil
		} else if err := s.checkUsernameFree(ctx, id, *patch.Username); err != nil {
			return err
		}
	}

	if err := s.repo.UpdateProfile(ctx, id, patch); err != nil {
		return s.writeError(id, "update user", err)
	}

	// the old username key must go too, so drop the entry read above
	s.cacheInvalidate(ctx, user)

	logger.Info().
		Int64("user_id", id).
		Bool("username_changed", patch.Username != nil).
		Msg("User updated")

	return nil
}

// CheckUser logs a user in: the credentials must match a stored account,
// which is then marked ONLINE.
func (s *userService) CheckUser(ctx context.Context, creds models.Credentials) (*models.User, error) {
	if creds.Username == "" {
		return nil, apperrors.NewValidationError("username", "username cannot be empty")
	}
	if creds.Password == "" {
		return nil, apperrors.NewValidationError("password", "password cannot be empty")
	}

	user, err := s.repo.GetByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.Newf(apperrors.ErrCodeUserNotFound, "user with username %s was not found", creds.Username).
				WithDetail("username", creds.Username)
		}
		return nil, apperrors.NewDatabaseError("get user by username", err)
	}

	if subtle.ConstantTimeCompare([]byte(user.Password), []byte(creds.Password)) != 1 {
		logger.Warn().Int64("user_id", user.ID).Msg("Login with wrong password")
		return nil, apperrors.NewUnauthorizedError(msgWrongPassword)
	}

	if err := s.repo.SetStatus(ctx, user.ID, models.StatusOnline); err != nil {
		return nil, s.writeError(user.ID, "set user status", err)
	}
	s.cacheInvalidate(ctx, user)

	// re-read so a profile change made since the lookup is not reported stale
	fresh, err := s.getByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	logger.Info().Int64("user_id", fresh.ID).Msg("User logged in")
	return fresh, nil
}

// LogoutUser marks the account OFFLINE. Only the account's own token may do it.
func (s *userService) LogoutUser(ctx context.Context, id int64, token string) error {
	caller, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}

	user, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}
	if caller.ID != user.ID {
		return apperrors.NewForbiddenError(msgNotOwner).WithDetail("user_id", id)
	}

	if err := s.repo.SetStatus(ctx, id, models.StatusOffline); err != nil {
		return s.writeError(id, "set user status", err)
	}
	s.cacheInvalidate(ctx, user)

	logger.Info().Int64("user_id", id).Msg("User logged out")
	return nil
}

// Authenticate resolves a session token to its user.
func (s *userService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperrors.NewUnauthorizedError(msgTokenRequired)
	}

	if s.cache != nil {
		if u, err := s.cache.GetByToken(ctx, token); err == nil && u != nil {
			return u, nil
		}
	}

	user, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewUnauthorizedError(msgInvalidToken)
		}
		return nil, apperrors.NewDatabaseError("get user by token", err)
	}

	s.cacheSet(ctx, user)
	return user, nil
}

func (s *userService) getByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewUserNotFoundError(id)
		}
		return nil, apperrors.NewDatabaseError("get user by id", err)
	}
	return user, nil
}

func (s *userService) checkUsernameFree(ctx context.Context, id int64, username string) error {
	if err := validation.ValidateUsername(username); err != nil {
		return apperrors.NewValidationError("username", err.Error())
	}
	other, err := s.repo.GetByUsername(ctx, username)
	switch {
	case err == nil && other.ID != id:
		return apperrors.NewConflictError("user", msgUsernameNotUnique)
	case err != nil && !errors.Is(err, repository.ErrUserNotFound):
		return apperrors.NewDatabaseError("get user by username", err)
	}
	return nil
}

func (s *userService) writeError(id int64, op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrUsernameTaken):
		return apperrors.NewConflictError("user", msgUsernameNotUnique)
	case errors.Is(err, repository.ErrUserNotFound):
		return apperrors.NewUserNotFoundError(id)
	default:
		return apperrors.NewDatabaseError(op, err)
	}
}

func (s *userService) cacheSet(ctx context.Context, user *models.User) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, user); err != nil {
		logCacheError(apperrors.NewCacheError("set user", err), user.ID)
	}
}

func (s *userService) cacheInvalidate(ctx context.Context, user *models.User) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, user); err != nil {
		logCacheError(apperrors.NewCacheError("invalidate user", err), user.ID)
	}
}

// cache failures degrade to store reads, never to a failed request
func logCacheError(appErr *apperrors.AppError, userID int64) {
	logger.Warn().
		Err(appErr.Cause).
		Str("error_code", string(appErr.Code)).
		Str("error_message", appErr.Message).
		Int64("user_id", userID).
		Msg("Cache operation failed")
}
