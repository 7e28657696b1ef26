package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gobeaver/beaver-connect/cache/driver"
)

type item struct {
	value      []byte
	expiration int64
}

func (it *item) expired(now int64) bool {
	return it.expiration > 0 && now > it.expiration
}

// Store is an in-process cache. Values do not survive a restart, so it suits
// nonce ledgers and tests better than long-lived tokens.
type Store struct {
	mu              sync.RWMutex
	items           map[string]*item
	maxKeys         int
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	closeOnce       sync.Once
	keyPrefix       string
}

// Config holds memory cache specific configuration
type Config struct {
	MaxKeys         int
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
	KeyPrefix       string
	Namespace       string
}

// New creates a memory store and starts its expiry sweeper.
func New(cfg Config) (*Store, error) {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}

	s := &Store{
		items:           make(map[string]*item),
		maxKeys:         cfg.MaxKeys,
		defaultTTL:      cfg.DefaultTTL,
		cleanupInterval: cfg.CleanupInterval,
		stopCleanup:     make(chan struct{}),
		keyPrefix:       driver.Prefix(cfg.Namespace, cfg.KeyPrefix),
	}

	go s.cleanupExpired()

	return s, nil
}

// Get retrieves a value by key
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[s.keyPrefix+key]
	if !ok || it.expired(time.Now().UnixNano()) {
		return nil, driver.ErrNotFound
	}

	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, nil
}

// Set stores a value. A zero ttl falls back to the configured default; a
// negative ttl or a zero default means the value never expires.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fullKey := s.keyPrefix + key
	if _, exists := s.items[fullKey]; !exists && s.full() {
		return driver.ErrLimitReached
	}
	s.put(fullKey, value, ttl)
	return nil
}

// SetIfAbsent stores value only when key is missing or expired and reports
// whether it did.
func (s *Store) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fullKey := s.keyPrefix + key
	if it, exists := s.items[fullKey]; exists && !it.expired(time.Now().UnixNano()) {
		return false, nil
	}
	if s.full() {
		return false, driver.ErrLimitReached
	}
	s.put(fullKey, value, ttl)
	return true, nil
}

func (s *Store) full() bool {
	return s.maxKeys > 0 && len(s.items) >= s.maxKeys
}

func (s *Store) put(fullKey string, value []byte, ttl time.Duration) {
	if ttl == 0 {
		ttl = s.defaultTTL
	}

	var expiration int64
	if ttl > 0 {
		expiration = time.Now().Add(ttl).UnixNano()
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	s.items[fullKey] = &item{value: stored, expiration: expiration}
}

// Delete removes a key
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, s.keyPrefix+key)
	s.mu.Unlock()
	return nil
}

// Exists checks if a key exists
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[s.keyPrefix+key]
	return ok && !it.expired(time.Now().UnixNano()), nil
}

// Close stops the sweeper. It is safe to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() { close(s.stopCleanup) })
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Len reports the number of live keys under this store's prefix.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now().UnixNano()
	n := 0
	for k, it := range s.items {
		if strings.HasPrefix(k, s.keyPrefix) && !it.expired(now) {
			n++
		}
	}
	return n
}

func (s *Store) cleanupExpired() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *Store) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixNano()
	for key, it := range s.items {
		if it.expired(now) {
			delete(s.items, key)
		}
	}
}
