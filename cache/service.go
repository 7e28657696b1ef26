package cache

import (
	"errors"

	"github.com/gobeaver/beaver-connect/cache/driver"
	"github.com/gobeaver/beaver-connect/cache/driver/memory"
	"github.com/gobeaver/beaver-connect/cache/driver/redis"
	"github.com/gobeaver/beaver-connect/config"
)

// NoExpiry as a ttl keeps a value until it is overwritten or deleted.
const NoExpiry = driver.NoExpiry

// Common errors
var (
	ErrInvalidDriver = errors.New("invalid cache driver")
	ErrKeyNotFound   = driver.ErrNotFound
	ErrLimitReached  = driver.ErrLimitReached
)

// IsNotFound reports whether err means the key does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// Builder provides a way to create cache instances with custom prefixes
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// New creates a cache from variables under the builder's prefix.
func (b *Builder) New() (Cache, error) {
	cfg, err := GetConfig(config.WithPrefix(b.prefix))
	if err != nil {
		return nil, err
	}
	return New(*cfg)
}

// New creates a new cache instance with given config
func New(cfg Config) (Cache, error) {
	switch cfg.Driver {
	case "", "memory":
		return memory.New(memory.Config{
			MaxKeys:         cfg.MaxKeys,
			DefaultTTL:      cfg.DefaultTTL,
			CleanupInterval: cfg.CleanupInterval,
			KeyPrefix:       cfg.KeyPrefix,
			Namespace:       cfg.Namespace,
		})
	case "redis":
		store, err := redis.New(redis.Config{
			Host:         cfg.Host,
			Port:         cfg.Port,
			Password:     cfg.Password,
			Database:     cfg.Database,
			URL:          cfg.URL,
			MaxRetries:   cfg.MaxRetries,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			DialTimeout:  cfg.DialTimeout,
			UseTLS:       cfg.UseTLS,
			CertFile:     cfg.CertFile,
			KeyFile:      cfg.KeyFile,
			KeyPrefix:    cfg.KeyPrefix,
			Namespace:    cfg.Namespace,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, ErrInvalidDriver
	}
}

// NewFromEnv creates cache instance from BEAVER_CACHE_* variables.
func NewFromEnv() (Cache, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return New(*cfg)
}
