package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisCallTimeout = 3 * time.Second

// RedisStore keeps the token in Redis so several client processes share one session.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed token store. A zero ttl keeps the token until cleared.
func NewRedisStore(addr, password, key string, ttl time.Duration) *RedisStore {
	return NewRedisStoreWithClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	}), key, ttl)
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, key string, ttl time.Duration) *RedisStore {
	if key == "" {
		key = TokenKey
	}
	return &RedisStore{client: client, key: key, ttl: ttl}
}

func (s *RedisStore) Acquire(ctx context.Context, token string) error {
	token, err := normalize(token)
	if err != nil {
		return err
	}
	ctx, cancel := withCallTimeout(ctx)
	defer cancel()
	if err := s.client.Set(ctx, s.key, token, s.ttl).Err(); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

func (s *RedisStore) Read(ctx context.Context) (string, bool, error) {
	ctx, cancel := withCallTimeout(ctx)
	defer cancel()
	val, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read token: %w", err)
	}
	return val, true, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	ctx, cancel := withCallTimeout(ctx)
	defer cancel()
	if err := s.client.Del(ctx, s.key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, redisCallTimeout)
}
