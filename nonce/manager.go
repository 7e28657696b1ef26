// Package nonce issues and verifies short-lived, action-scoped anti-forgery
// tokens for form submissions.
//
// A nonce is an HS256 JWT whose subject is the action it protects. The
// signing key is derived per action from one root secret, so a nonce issued
// for "a_authorize" never verifies for "b_authorize" even if the subject
// check were bypassed. With a ledger attached, each nonce verifies once.
package nonce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gobeaver/beaver-connect/cache"
	"github.com/gobeaver/beaver-connect/krypto"
)

// Define standard errors for the package
var (
	ErrInvalidConfig = errors.New("nonce: invalid configuration")
	ErrInvalidToken  = errors.New("nonce: invalid token")
	ErrExpired       = errors.New("nonce: expired")
	ErrReplayed      = errors.New("nonce: already used")
)

const ledgerPrefix = "nonce:"

// Manager creates and verifies nonces.
type Manager struct {
	secret   string
	lifetime time.Duration
	issuer   string
	ledger   cache.Cache
	now      func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLedger records verified nonce IDs so they cannot be replayed.
func WithLedger(c cache.Cache) Option {
	return func(m *Manager) { m.ledger = c }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates a Manager.
func New(cfg Config, opts ...Option) (*Manager, error) {
	m := &Manager{
		secret:   cfg.SecretKey,
		lifetime: cfg.Lifetime,
		issuer:   cfg.Issuer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.secret == "" {
		return nil, fmt.Errorf("%w: secret key is required", ErrInvalidConfig)
	}
	if len(m.secret) < 16 {
		return nil, fmt.Errorf("%w: secret key must be at least 16 characters", ErrInvalidConfig)
	}
	if m.lifetime <= 0 {
		return nil, fmt.Errorf("%w: lifetime must be positive", ErrInvalidConfig)
	}
	if cfg.SingleUse && m.ledger == nil {
		return nil, fmt.Errorf("%w: single-use nonces need a ledger", ErrInvalidConfig)
	}
	if !cfg.SingleUse {
		m.ledger = nil
	}

	return m, nil
}

// Lifetime reports how long issued nonces stay valid.
func (m *Manager) Lifetime() time.Duration {
	return m.lifetime
}

// Create issues a nonce bound to action.
func (m *Manager) Create(ctx context.Context, action string) (string, error) {
	if action == "" {
		return "", fmt.Errorf("%w: empty action", ErrInvalidToken)
	}
	key, err := m.signingKey(action)
	if err != nil {
		return "", err
	}

	now := m.now()
	claims := jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   action,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("nonce: sign: %w", err)
	}
	return signed, nil
}

// Verify checks that token was issued for action and is still live. With a
// ledger it also consumes the token.
func (m *Manager) Verify(ctx context.Context, token, action string) error {
	if token == "" || action == "" {
		return ErrInvalidToken
	}
	key, err := m.signingKey(action)
	if err != nil {
		return err
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(action),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case err != nil:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if m.ledger == nil {
		return nil
	}
	if claims.ID == "" {
		return fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}

	ttl := claims.ExpiresAt.Sub(m.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	fresh, err := m.ledger.SetIfAbsent(ctx, ledgerPrefix+claims.ID, []byte(action), ttl)
	if err != nil {
		return fmt.Errorf("nonce: ledger: %w", err)
	}
	if !fresh {
		return ErrReplayed
	}
	return nil
}

func (m *Manager) signingKey(action string) ([]byte, error) {
	key, err := krypto.DeriveKey(m.secret, "beaver-connect/nonce:"+action, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return key, nil
}
