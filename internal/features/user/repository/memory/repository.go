package memory

import (
	"context"
	"sort"
	"sync"

	"user-account-service/internal/features/user/models"
	"user-account-service/internal/features/user/repository"
)

// memoryRepository keeps users in process memory. Used for local runs with
// STORAGE_DRIVER=memory and in tests.
type memoryRepository struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]*models.User
	byUsername map[string]int64
	byToken    map[string]int64
}

func NewMemoryRepository() repository.UserRepository {
	return &memoryRepository{
		nextID:     1,
		byID:       make(map[int64]*models.User),
		byUsername: make(map[string]int64),
		byToken:    make(map[string]int64),
	}
}

func (r *memoryRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[user.Username]; taken {
		return repository.ErrUsernameTaken
	}

	user.ID = r.nextID
	r.nextID++

	stored := clone(user)
	r.byID[stored.ID] = stored
	r.byUsername[stored.Username] = stored.ID
	if stored.Token != "" {
		r.byToken[stored.Token] = stored.ID
	}
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return clone(u), nil
}

func (r *memoryRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *memoryRepository) GetByToken(_ context.Context, token string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byToken[token]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *memoryRepository) List(_ context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*models.User, 0, len(r.byID))
	for _, u := range r.byID {
		users = append(users, clone(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *memoryRepository) UpdateProfile(_ context.Context, id int64, patch models.UserPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}

	if patch.Username != nil && *patch.Username != current.Username {
		if _, taken := r.byUsername[*patch.Username]; taken {
			return repository.ErrUsernameTaken
		}
		delete(r.byUsername, current.Username)
		r.byUsername[*patch.Username] = id
		current.Username = *patch.Username
	}

	switch {
	case patch.ClearBirthday:
		current.Birthday = nil
	case patch.Birthday != nil:
		b := *patch.Birthday
		current.Birthday = &b
	}
	return nil
}

func (r *memoryRepository) SetStatus(_ context.Context, id int64, status models.UserStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	current.Status = status
	return nil
}

func clone(u *models.User) *models.User {
	c := *u
	if u.Birthday != nil {
		b := *u.Birthday
		c.Birthday = &b
	}
	return &c
}
