package cache

import (
	"context"
	"time"
)

// Store is the small slice of cache behavior the settlement job needs.
// The redis client satisfies it in production; tests substitute an
// in-memory fake.
type Store interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes a value; ttl <= 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX writes the value only when the key is absent and reports
	// whether it won.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}
