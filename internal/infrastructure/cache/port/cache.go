package port

import (
	"context"
	"time"
)

// Cache is the minimal key-value contract used for presence snapshots.
// Implementations must be concurrency-safe and context-aware so callers can
// bound every round trip.
//
// Values are plain strings to keep the port free of serialization concerns;
// callers encode what they need (the presence tracker stores JSON).
type Cache interface {
	// Get fetches the value for key, returning ErrMiss when the key is
	// absent and a non-nil error only for transport or server failures.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key with the provided TTL. Zero or negative TTL
	// means no expiration.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Del removes one or more keys and returns how many were removed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Ping verifies connectivity with the cache backend.
	Ping(ctx context.Context) error

	// Close releases any resources held by the cache.
	Close() error
}

// ErrMiss signals a cache miss in a typed way so callers can tell misses from
// transport errors.
var ErrMiss = errMiss{}

type errMiss struct{}

func (e errMiss) Error() string { return "cache: miss" }
