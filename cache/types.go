package cache

import (
	"context"
	"time"
)

// Cache is the key-value contract shared by the memory and redis drivers.
type Cache interface {
	// Get returns ErrKeyNotFound when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value; ttl 0 uses the driver default and NoExpiry
	// disables expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetIfAbsent stores the value only if the key does not exist yet.
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
	Ping(ctx context.Context) error
}
