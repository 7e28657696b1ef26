package oauth

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

const tokenOption = "access_token"

// TokenKey returns the storage key for an integration's access token.
func TokenKey(settingsName string) string {
	return OptionKey(settingsName, tokenOption)
}

// TokenStore caches one integration's access token in memory and writes it
// through to the integration's Settings. The first read after startup loads it lazily.
//
// The mutex only protects the in-process copy. Concurrent exchanges in
// different processes still race on the backing store; the last write wins.
type TokenStore struct {
	mu       sync.Mutex
	settings *Settings
	value    string
	logger   *zap.Logger
}

// NewTokenStore creates a store for settingsName over kv.
func NewTokenStore(settingsName string, kv KeyValueStore, logger *zap.Logger) *TokenStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenStore{settings: NewSettings(settingsName, kv), logger: logger}
}

// Key returns the storage key.
func (s *TokenStore) Key() string { return s.settings.Key(tokenOption) }

// SetToken caches and persists token. An empty token is ignored.
func (s *TokenStore) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = token
	if err := s.settings.Set(ctx, tokenOption, token); err != nil {
		return fmt.Errorf("persist %s: %w", s.Key(), err)
	}
	return nil
}

// HasToken reports whether a non-empty token is cached or stored. Storage
// errors count as "no token".
func (s *TokenStore) HasToken(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

// Token returns the token and true, or "" and false when there is none.
func (s *TokenStore) Token(ctx context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loadLocked(ctx) {
		return "", false
	}
	return s.value, true
}

func (s *TokenStore) loadLocked(ctx context.Context) bool {
	if s.value != "" {
		return true
	}

	v, ok, err := s.settings.Get(ctx, tokenOption)
	if err != nil {
		s.logger.Warn("token lookup failed", zap.String("key", s.Key()), zap.Error(err))
		return false
	}
	if !ok || v == "" {
		return false
	}
	s.value = v
	return true
}
