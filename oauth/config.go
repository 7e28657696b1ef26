package oauth

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gobeaver/beaver-connect/config"
)

// Config holds the settings shared by every integration of a host.
type Config struct {
	// EndpointPath is the host's self-referencing action endpoint.
	EndpointPath string `env:"OAUTH_ENDPOINT_PATH" envDefault:"/admin-post"`

	// GetTimeout bounds GET calls to a provider.
	GetTimeout time.Duration `env:"OAUTH_GET_TIMEOUT" envDefault:"10s"`

	// PostTimeout bounds POST calls to a provider.
	PostTimeout time.Duration `env:"OAUTH_POST_TIMEOUT" envDefault:"5s"`

	// MaxResponseBytes caps how much of a provider response is read.
	MaxResponseBytes int64 `env:"OAUTH_MAX_RESPONSE_BYTES" envDefault:"1048576"`

	// IntegrationsFile is a YAML file listing integrations.
	IntegrationsFile string `env:"OAUTH_INTEGRATIONS_FILE"`

	// Integrations is a JSON array of integrations, used when no file is set.
	Integrations string `env:"OAUTH_INTEGRATIONS"`

	// TokenEncryptionKey, when set, encrypts stored access tokens at rest.
	TokenEncryptionKey string `env:"OAUTH_TOKEN_ENCRYPTION_KEY"`

	// RequireHTTPS refuses to serve actions over plain HTTP.
	RequireHTTPS bool `env:"OAUTH_REQUIRE_HTTPS" envDefault:"true"`

	// TrustedProxies are peer IPs, such as a TLS-terminating load balancer,
	// whose X-Forwarded-Proto and X-Forwarded-For headers are believed.
	TrustedProxies []string `env:"OAUTH_TRUSTED_PROXIES" envSeparator:","`

	// RateLimit is the per-client request rate for the action endpoint; 0 disables it.
	RateLimit float64 `env:"OAUTH_RATE_LIMIT" envDefault:"5"`
	RateBurst int     `env:"OAUTH_RATE_BURST" envDefault:"10"`

	// Debug enables development logging
	Debug bool `env:"OAUTH_DEBUG" envDefault:"false"`
}

// NewLogger returns a development logger when Debug is set and a production
// logger otherwise.
func (c Config) NewLogger() (*zap.Logger, error) {
	if c.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// GetConfig returns config loaded from environment with optional LoadOptions
func GetConfig(opts ...config.LoadOptions) (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, opts...); err != nil {
		return nil, fmt.Errorf("failed to load oauth config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration validity
func (c Config) Validate() error {
	if c.GetTimeout <= 0 || c.PostTimeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	if c.MaxResponseBytes <= 0 {
		return fmt.Errorf("%w: max_response_bytes must be positive", ErrInvalidConfig)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Builder provides a fluent API for configuration with custom prefixes
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// GetConfig loads the configuration under the builder's prefix.
func (b *Builder) GetConfig() (*Config, error) {
	return GetConfig(config.WithPrefix(b.prefix))
}
