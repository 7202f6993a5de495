package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tacticsboard-auth/internal/auth/domain/repository"
	apperrors "tacticsboard-auth/internal/shared/errors"
	"tacticsboard-auth/internal/shared/logger"

	"github.com/redis/go-redis/v9"
)

// envelopeVersion is bumped whenever the serialized shape of cached objects
// changes. Entries carrying another version are treated as misses.
const envelopeVersion = 1

// cacheEnvelope wraps every structured value stored through SetObject so a
// reader can reject payloads written under a different schema.
type cacheEnvelope struct {
	Version int             `json:"v"`
	Data    json.RawMessage `json:"data"`
}

// RedisCache implements the Cache port over go-redis. It holds no state
// beyond the injected client and logger; the client's lifecycle (connect at
// startup, close at shutdown) belongs to the process entry point.
type RedisCache struct {
	client *redis.Client
	logger logger.Logger
}

// NewRedisCache creates a cache adapter around an already constructed client.
func NewRedisCache(client *redis.Client, log logger.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		logger: log.WithComponent("redis_cache"),
	}
}

var _ repository.Cache = (*RedisCache)(nil)

// Set stores a string value. A zero or negative ttl stores it without expiry.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return c.unavailable("set", key, err)
	}
	return nil
}

// Get returns the value stored under key or errors.ErrKeyNotFound.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("get %q: %w", key, apperrors.ErrKeyNotFound)
	}
	if err != nil {
		return "", c.unavailable("get", key, err)
	}
	return val, nil
}

// Del removes the given keys and returns how many existed.
func (c *RedisCache) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	count, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, c.unavailable("del", keys[0], err)
	}
	return count, nil
}

// Exists reports whether the key is present.
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, c.unavailable("exists", key, err)
	}
	return n > 0, nil
}

// Expire sets a new ttl on an existing key. Returns false when the key does
// not exist.
func (c *RedisCache) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, c.unavailable("expire", key, err)
	}
	return ok, nil
}

// TTL returns the remaining lifetime of a key: -1s when the key has no
// expiry, -2s when the key does not exist.
func (c *RedisCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := c.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, c.unavailable("ttl", key, err)
	}
	return d, nil
}

// Keys returns all keys matching the glob pattern.
func (c *RedisCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := c.client.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, c.unavailable("keys", pattern, err)
	}
	return keys, nil
}

// Incr increments the integer value stored under key.
func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, c.unavailable("incr", key, err)
	}
	return n, nil
}

// Decr decrements the integer value stored under key.
func (c *RedisCache) Decr(ctx context.Context, key string) (int64, error) {
	n, err := c.client.Decr(ctx, key).Result()
	if err != nil {
		return 0, c.unavailable("decr", key, err)
	}
	return n, nil
}

// SAdd adds members to the set stored under key.
func (c *RedisCache) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	if err := c.client.SAdd(ctx, key, toInterfaceSlice(members)...).Err(); err != nil {
		return c.unavailable("sadd", key, err)
	}
	return nil
}

// SRem removes members from the set stored under key.
func (c *RedisCache) SRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	if err := c.client.SRem(ctx, key, toInterfaceSlice(members)...).Err(); err != nil {
		return c.unavailable("srem", key, err)
	}
	return nil
}

// SMembers returns all members of the set stored under key.
func (c *RedisCache) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := c.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, c.unavailable("smembers", key, err)
	}
	return members, nil
}

// SetObject serializes a structured value into a versioned envelope and
// stores it under key.
func (c *RedisCache) SetObject(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %q: %w", key, err)
	}
	payload, err := json.Marshal(cacheEnvelope{Version: envelopeVersion, Data: data})
	if err != nil {
		return fmt.Errorf("marshal envelope for %q: %w", key, err)
	}
	return c.Set(ctx, key, string(payload), ttl)
}

// GetObject reads a value stored by SetObject into dest. A stored value that
// fails to decode, or that carries an unknown envelope version, is logged
// and reported as errors.ErrKeyNotFound so corrupt entries degrade to a
// miss instead of an outage.
func (c *RedisCache) GetObject(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}

	var env cacheEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return c.malformed(key, err)
	}
	if env.Version != envelopeVersion {
		return c.malformed(key, fmt.Errorf("unsupported envelope version %d", env.Version))
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return c.malformed(key, err)
	}
	return nil
}

// IsAvailable reports whether the cache connection is currently usable. It
// pings per call so a connection that dropped mid-request is seen by the
// very next operation.
func (c *RedisCache) IsAvailable(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}

func (c *RedisCache) unavailable(op, key string, err error) error {
	c.logger.WithFields(map[string]interface{}{
		"op":    op,
		"key":   key,
		"error": err.Error(),
	}).Warn("Cache operation failed")
	return fmt.Errorf("%s %q: %v: %w", op, key, err, apperrors.ErrCacheUnavailable)
}

func (c *RedisCache) malformed(key string, cause error) error {
	c.logger.WithFields(map[string]interface{}{
		"key":   key,
		"error": cause.Error(),
	}).Warn("Malformed cache value treated as miss")
	return fmt.Errorf("decode %q: %w: %w", key, apperrors.ErrMalformedCacheValue, apperrors.ErrKeyNotFound)
}

func toInterfaceSlice(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
