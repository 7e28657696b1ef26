package oauth

import (
	"context"
	"fmt"
	"strings"

	"github.com/gobeaver/beaver-connect/cache"
	"github.com/gobeaver/beaver-connect/krypto"
)

// CacheStore adapts a cache.Cache to KeyValueStore. Values are written with
// cache.NoExpiry, so a driver default TTL never drops them. Pair it with the
// redis driver for anything that must survive a restart.
type CacheStore struct {
	cache cache.Cache
}

// NewCacheStore wraps c.
func NewCacheStore(c cache.Cache) *CacheStore {
	return &CacheStore{cache: c}
}

func (s *CacheStore) Get(ctx context.Context, key string) (string, bool, error) {
	b, err := s.cache.Get(ctx, key)
	if cache.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}

func (s *CacheStore) Set(ctx context.Context, key, value string) error {
	return s.cache.Set(ctx, key, []byte(value), cache.NoExpiry)
}

// Ping checks the cache backend.
func (s *CacheStore) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

const sealedPrefix = "enc:v1:"

// EncryptedStore encrypts values with AES-GCM before handing them to the
// wrapped store. Values written before encryption was enabled are returned
// as they are.
type EncryptedStore struct {
	next   KeyValueStore
	cipher krypto.Service
}

// NewEncryptedStore derives an AES-256 key from secret and wraps next.
func NewEncryptedStore(next KeyValueStore, secret string) (*EncryptedStore, error) {
	svc, err := krypto.NewAESGCMServiceFromSecret(secret, "beaver-connect/token-store")
	if err != nil {
		return nil, fmt.Errorf("%w: token encryption key: %v", ErrInvalidConfig, err)
	}
	return &EncryptedStore{next: next, cipher: svc}, nil
}

func (s *EncryptedStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.next.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}

	sealed, encrypted := strings.CutPrefix(v, sealedPrefix)
	if !encrypted {
		return v, true, nil
	}
	plain, err := s.cipher.Open(sealed)
	if err != nil {
		return "", false, fmt.Errorf("decrypt %s: %w", key, err)
	}
	return plain, true, nil
}

func (s *EncryptedStore) Set(ctx context.Context, key, value string) error {
	sealed, err := s.cipher.Seal(value)
	if err != nil {
		return fmt.Errorf("encrypt %s: %w", key, err)
	}
	return s.next.Set(ctx, key, sealedPrefix+sealed)
}

// Ping forwards to the wrapped store when it supports it.
func (s *EncryptedStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

type pinger interface {
	Ping(ctx context.Context) error
}
