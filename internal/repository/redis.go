package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV stores values in Redis under a namespaced key with a sliding TTL.
type RedisKV struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedisKV constructs RedisKV. A zero ttl keeps keys forever.
func NewRedisKV(client *redis.Client, namespace string, ttl time.Duration) *RedisKV {
	return &RedisKV{client: client, namespace: namespace, ttl: ttl}
}

func (r *RedisKV) key(key string) string {
	return fmt.Sprintf("%s:%s", r.namespace, key)
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.key(key), value, r.ttl).Err()
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}
