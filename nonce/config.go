package nonce

import (
	"time"

	"github.com/gobeaver/beaver-connect/config"
)

// Config defines the configuration for the nonce manager
type Config struct {
	// SecretKey is the root secret; per-action signing keys are derived from it.
	SecretKey string `env:"NONCE_SECRET_KEY"`

	// Lifetime bounds how long an issued nonce verifies.
	Lifetime time.Duration `env:"NONCE_LIFETIME" envDefault:"30m"`

	// Issuer is written to and checked against the iss claim.
	Issuer string `env:"NONCE_ISSUER" envDefault:"beaver-connect"`

	// SingleUse rejects a nonce the second time it verifies. Requires a ledger.
	SingleUse bool `env:"NONCE_SINGLE_USE" envDefault:"false"`
}

// GetConfig returns config loaded from BEAVER_NONCE_* variables.
func GetConfig(opts ...config.LoadOptions) (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Builder loads configuration under a custom prefix.
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// GetConfig loads the prefixed configuration.
func (b *Builder) GetConfig() (*Config, error) {
	return GetConfig(config.WithPrefix(b.prefix))
}

// New loads the prefixed configuration and builds a Manager.
func (b *Builder) New(opts ...Option) (*Manager, error) {
	cfg, err := b.GetConfig()
	if err != nil {
		return nil, err
	}
	return New(*cfg, opts...)
}
