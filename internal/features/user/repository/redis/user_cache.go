package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"user-account-service/internal/features/user/models"
)

// ErrCacheMiss is returned when no entry exists for the key.
var ErrCacheMiss = errors.New("user cache miss")

// UserCache provides Redis-based caching for users, addressable by id and
// token. Passwords are never written to Redis.
type UserCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewUserCache(client redis.UniversalClient, ttl time.Duration) *UserCache {
	return &UserCache{client: client, ttl: ttl}
}

// cachedUser is the stored payload: a User without its password.
type cachedUser struct {
	ID           int64             `json:"id"`
	Username     string            `json:"username"`
	Token        string            `json:"token"`
	Status       models.UserStatus `json:"status"`
	CreationDate time.Time         `json:"creation_date"`
	Birthday     *time.Time        `json:"birthday,omitempty"`
}

func toCached(u *models.User) cachedUser {
	return cachedUser{
		ID:           u.ID,
		Username:     u.Username,
		Token:        u.Token,
		Status:       u.Status,
		CreationDate: u.CreationDate,
		Birthday:     u.Birthday,
	}
}

func (cu cachedUser) toUser() *models.User {
	return &models.User{
		ID:           cu.ID,
		Username:     cu.Username,
		Token:        cu.Token,
		Status:       cu.Status,
		CreationDate: cu.CreationDate,
		Birthday:     cu.Birthday,
	}
}

func (c *UserCache) keyByID(id int64) string { return fmt.Sprintf("user:id:%d", id) }
func (c *UserCache) keyByToken(token string) string { return fmt.Sprintf("user:token:%s", token) }

func (c *UserCache) keys(u *models.User) []string {
	keys := []string{c.keyByID(u.ID)}
	if u.Token != "" {
		keys = append(keys, c.keyByToken(u.Token))
	}
	return keys
}

// Set stores the user under all of its keys in one pipeline.
func (c *UserCache) Set(ctx context.Context, u *models.User) error {
	b, err := json.Marshal(toCached(u))
	if err != nil {
		return err
	}
	pipe := c.client.TxPipeline()
	for _, key := range c.keys(u) {
		pipe.Set(ctx, key, b, c.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (c *UserCache) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return c.get(ctx, c.keyByID(id))
}

func (c *UserCache) GetByToken(ctx context.Context, token string) (*models.User, error) {
	return c.get(ctx, c.keyByToken(token))
}

func (c *UserCache) get(ctx context.Context, key string) (*models.User, error) {
	v, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	var cu cachedUser
	if err := json.Unmarshal(v, &cu); err != nil {
		return nil, err
	}
	return cu.toUser(), nil
}

// Invalidate removes cached entries for the user.
func (c *UserCache) Invalidate(ctx context.Context, u *models.User) error {
	return c.client.Del(ctx, c.keys(u)...).Err()
}
