package repository

import (
	"context"
	"time"
)

// Cache defines the primitive operations the session subsystem needs from a
// TTL-capable key-value store. Every method can fail with a wrapped
// errors.ErrCacheUnavailable when the connection is down; callers either
// check IsAvailable first or treat that failure as a signal to fall back.
type Cache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
	Incr(ctx context.Context, key string) (int64, error)
	Decr(ctx context.Context, key string) (int64, error)

	// Set operations back the per-user session index. They are atomic on the
	// server, so concurrent create/delete for one user cannot lose updates.
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)

	// SetObject and GetObject serialize a structured value through the
	// string primitives using a versioned envelope. A stored value that
	// fails to decode surfaces as errors.ErrKeyNotFound so stale or corrupt
	// entries degrade to a miss instead of crashing callers.
	SetObject(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetObject(ctx context.Context, key string, dest interface{}) error

	// IsAvailable reports whether the cache connection is currently usable.
	// It is sampled per call, never cached across a request.
	IsAvailable(ctx context.Context) bool
}
