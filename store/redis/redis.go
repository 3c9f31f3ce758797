// Package redis provides a usage [store.Store] backed by Redis, so several
// processes sharing one API key can see a combined request count.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/ryhazerus/enrich/store"
)

var _ store.Store = (*RedisStore)(nil)

// RedisStore keeps one hash per operation with fields "bucket" and "n".
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps client. Keys are written as "enrich:usage:<operation>".
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "enrich:usage:"}
}

// KEYS[1] counter hash, ARGV[1] bucket key, ARGV[2] window length in seconds.
var recordScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], "bucket") == ARGV[1] then
	return redis.call("HINCRBY", KEYS[1], "n", 1)
end
redis.call("HSET", KEYS[1], "bucket", ARGV[1], "n", 1)
local ttl = tonumber(ARGV[2])
if ttl > 0 then
	redis.call("EXPIRE", KEYS[1], ttl)
end
return 1
`)

// Record atomically bumps the counter hash for key, expiring it one window after it is created.
func (r *RedisStore) Record(ctx context.Context, key string, w store.Window) (int64, error) {
	n, err := recordScript.Run(ctx, r.client, []string{r.prefix + key}, w.BucketKey, int64(w.Duration.Seconds())).Int64()
	if err != nil {
		return 0, fmt.Errorf("enrich/store/redis: record %s: %w", key, err)
	}
	return n, nil
}

// Count reads the counter hash for key if it belongs to the bucket of w.
func (r *RedisStore) Count(ctx context.Context, key string, w store.Window) (int64, error) {
	vals, err := r.client.HMGet(ctx, r.prefix+key, "bucket", "n").Result()
	if err != nil {
		return 0, fmt.Errorf("enrich/store/redis: count %s: %w", key, err)
	}
	bucket, _ := vals[0].(string)
	if bucket != w.BucketKey {
		return 0, nil
	}
	raw, ok := vals[1].(string)
	if !ok {
		return 0, errors.New("enrich/store/redis: counter without value")
	}
	var n int64
	if _, err := fmt.Sscan(raw, &n); err != nil {
		return 0, fmt.Errorf("enrich/store/redis: parse counter %q: %w", raw, err)
	}
	return n, nil
}

// Reset deletes the counter hash for key.
func (r *RedisStore) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

// Close closes the Redis client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
