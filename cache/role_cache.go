// Package cache keeps a short-lived copy of user roles for the public role
// lookup.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultRoleTTL = 10 * time.Minute
	keyPrefix      = "microloan:role:"
)

// RoleCache caches the role stored for an email address. Readers fill the
// cache with FillRole, which never replaces an entry; writers that change a
// role overwrite it with SetRole.
type RoleCache interface {
	GetRole(ctx context.Context, email string) (role string, ok bool, err error)
	FillRole(ctx context.Context, email, role string) error
	SetRole(ctx context.Context, email, role string) error
	Invalidate(ctx context.Context, email string) error
}

// Noop is a RoleCache that never holds anything.
type Noop struct{}

func (Noop) GetRole(context.Context, string) (string, bool, error) { return "", false, nil }
func (Noop) FillRole(context.Context, string, string) error        { return nil }
func (Noop) SetRole(context.Context, string, string) error         { return nil }
func (Noop) Invalidate(context.Context, string) error              { return nil }

// redisClient is the subset of *redis.Client used by RedisRoleCache.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type RedisRoleCache struct {
	client redisClient
	ttl    time.Duration
}

func NewRedisRoleCache(client redisClient, ttl time.Duration) *RedisRoleCache {
	if ttl <= 0 {
		ttl = DefaultRoleTTL
	}
	return &RedisRoleCache{client: client, ttl: ttl}
}

// Connect opens a Redis client and verifies it with a ping.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func key(email string) string {
	return keyPrefix + strings.ToLower(email)
}

func (c *RedisRoleCache) GetRole(ctx context.Context, email string) (string, bool, error) {
	role, err := c.client.Get(ctx, key(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get cached role: %w", err)
	}
	return role, true, nil
}

// FillRole caches role only when no entry exists for email.
func (c *RedisRoleCache) FillRole(ctx context.Context, email, role string) error {
	if err := c.client.SetNX(ctx, key(email), role, c.ttl).Err(); err != nil {
		return fmt.Errorf("fill cached role: %w", err)
	}
	return nil
}

func (c *RedisRoleCache) SetRole(ctx context.Context, email, role string) error {
	if err := c.client.Set(ctx, key(email), role, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache role: %w", err)
	}
	return nil
}

func (c *RedisRoleCache) Invalidate(ctx context.Context, email string) error {
	if err := c.client.Del(ctx, key(email)).Err(); err != nil {
		return fmt.Errorf("invalidate cached role: %w", err)
	}
	return nil
}
