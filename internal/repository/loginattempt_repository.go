package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginAttemptRepository throttles repeated login attempts per username/IP.
type LoginAttemptRepository interface {
	// Allow records one attempt for the key and reports whether the caller
	// is still within the window's attempt budget. Fails open on Redis
	// errors so an unavailable cache never locks everyone out.
	Allow(ctx context.Context, key string, maxAttempts int, window time.Duration) (bool, error)
	Reset(ctx context.Context, key string) error
}

type loginAttemptRepository struct {
	client *redis.Client
}

// NewLoginAttemptRepository returns a Redis-backed implementation.
func NewLoginAttemptRepository(client *redis.Client) LoginAttemptRepository {
	return &loginAttemptRepository{client: client}
}

func (r *loginAttemptRepository) Allow(ctx context.Context, key string, maxAttempts int, window time.Duration) (bool, error) {
	if r.client == nil {
		return true, nil
	}
	redisKey := attemptKey(key)

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, nil
	}
	if count == 1 {
		_ = r.client.Expire(ctx, redisKey, window).Err()
	}
	return count <= int64(maxAttempts), nil
}

func (r *loginAttemptRepository) Reset(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}
	return r.client.Del(ctx, attemptKey(key)).Err()
}

func attemptKey(key string) string {
	return fmt.Sprintf("login_attempts:%s", key)
}
