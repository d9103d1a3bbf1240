package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "guest-session:"

// RedisStore keeps sessions in redis so every api instance sees the same
// set of live guest ids.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Save(ctx context.Context, id string, ttl time.Duration) error {
	return r.client.Set(ctx, keyPrefix+id, "1", ttl).Err()
}

func (r *RedisStore) Touch(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := r.client.Expire(ctx, keyPrefix+id, ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, keyPrefix+id).Err()
}
