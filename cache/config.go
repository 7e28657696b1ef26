package cache

import (
	"strings"
	"time"

	"github.com/gobeaver/beaver-connect/config"
)

// Config holds cache configuration
type Config struct {
	// Driver specifies cache backend: "memory" or "redis"
	Driver string `env:"CACHE_DRIVER" envDefault:"memory"`

	// Redis specific settings
	Host     string `env:"CACHE_HOST" envDefault:"localhost"`
	Port     string `env:"CACHE_PORT" envDefault:"6379"`
	Password string `env:"CACHE_PASSWORD"`
	Database int    `env:"CACHE_DATABASE" envDefault:"0"`

	// Connection URL (overrides host/port/password)
	URL string `env:"CACHE_URL"`

	MaxRetries   int           `env:"CACHE_MAX_RETRIES" envDefault:"3"`
	PoolSize     int           `env:"CACHE_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"CACHE_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"CACHE_DIAL_TIMEOUT" envDefault:"5s"`

	UseTLS   bool   `env:"CACHE_USE_TLS" envDefault:"false"`
	CertFile string `env:"CACHE_CERT_FILE"`
	KeyFile  string `env:"CACHE_KEY_FILE"`

	// Memory cache specific
	MaxKeys         int           `env:"CACHE_MAX_KEYS" envDefault:"0"`
	DefaultTTL      time.Duration `env:"CACHE_DEFAULT_TTL" envDefault:"0s"`
	CleanupInterval time.Duration `env:"CACHE_CLEANUP_INTERVAL" envDefault:"1m"`

	KeyPrefix string `env:"CACHE_KEY_PREFIX"`
	Namespace string `env:"CACHE_NAMESPACE"`
}

// GetConfig loads configuration from environment variables
func GetConfig(opts ...config.LoadOptions) (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, opts...); err != nil {
		return nil, err
	}

	cfg.Driver = strings.ToLower(cfg.Driver)

	return cfg, nil
}
