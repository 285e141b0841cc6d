package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const sessionKeyPrefix = "admin_session:"

// SessionStore is the server-side registry of live admin sessions.
type SessionStore interface {
	Save(ctx context.Context, jti string, ttl time.Duration) error
	Exists(ctx context.Context, jti string) (bool, error)
	Delete(ctx context.Context, jti string) error
}

type RedisSessionStore struct {
	Client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{Client: client}
}

func (s *RedisSessionStore) Save(ctx context.Context, jti string, ttl time.Duration) error {
	if err := s.Client.Set(ctx, sessionKeyPrefix+jti, time.Now().UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		return fmt.Errorf("failed to store admin session in Redis: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Exists(ctx context.Context, jti string) (bool, error) {
	n, err := s.Client.Exists(ctx, sessionKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to look up admin session: %w", err)
	}
	return n == 1, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, jti string) error {
	return s.Client.Del(ctx, sessionKeyPrefix+jti).Err()
}
