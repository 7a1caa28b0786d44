package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// GetJSON decodes the value at key into dst. It reports false on a miss.
func (r *RedisProvider) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := r.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisProvider) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.SetWithDefaultTTL(ctx, key, data, ttl).Err()
}

// Acquire takes the cooldown slot at key for window. When the slot is
// already held it returns false and the time left on it.
func (r *RedisProvider) Acquire(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	ok, err := r.SetNX(ctx, key, time.Now().UnixMilli(), window).Result()
	if err != nil {
		return false, 0, err
	}
	if ok {
		return true, 0, nil
	}
	left, err := r.PTTL(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if left < 0 {
		left = window
	}
	return false, left, nil
}

// Release frees a cooldown slot early, e.g. after a failed insert.
func (r *RedisProvider) Release(ctx context.Context, key string) error {
	return r.Del(ctx, key).Err()
}
