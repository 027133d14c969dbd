package service

import (
	"context"
	"log"
	"time"

	redis_v9 "github.com/redis/go-redis/v9"
)

// LockRepo tracks temporary login lockouts.
type LockRepo interface {
	Lock(ctx context.Context, email string, ttl time.Duration)
	IsLocked(ctx context.Context, email string) bool
}

const lockKeyPrefix = "portfolio-lock-user-"

// RedisLockRepo stores lockouts in Redis so they survive restarts and are
// shared between replicas.
type RedisLockRepo struct {
	client *redis_v9.Client
}

func NewRedisLockRepo(client *redis_v9.Client) *RedisLockRepo {
	return &RedisLockRepo{client: client}
}

func (r *RedisLockRepo) Lock(ctx context.Context, email string, ttl time.Duration) {
	err := r.client.Set(ctx, lockKeyPrefix+email, time.Now().UnixMilli(), ttl).Err()
	if err != nil {
		log.Printf("Error saving lock to Redis: %s", err)
	}
}

func (r *RedisLockRepo) IsLocked(ctx context.Context, email string) bool {
	value, err := r.client.Get(ctx, lockKeyPrefix+email).Int64()
	if err != nil {
		return false
	}
	return value != 0
}

// NoopLockRepo disables lockouts (tests, or Redis not configured).
type NoopLockRepo struct{}

func (NoopLockRepo) Lock(ctx context.Context, email string, ttl time.Duration) {}

func (NoopLockRepo) IsLocked(ctx context.Context, email string) bool { return false }
