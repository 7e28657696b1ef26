package database

import (
	"strings"

	"github.com/gobeaver/beaver-connect/config"
)

// Config holds database configuration
type Config struct {
	// Driver: postgres, mysql, sqlite, turso, libsql
	Driver string `env:"DB_DRIVER" envDefault:"sqlite"`

	// Connection details (for traditional databases)
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT"`
	Database string `env:"DB_DATABASE" envDefault:"beaver.db"`
	Username string `env:"DB_USERNAME"`
	Password string `env:"DB_PASSWORD"`

	// URL for direct connection string (overrides individual settings)
	URL string `env:"DATABASE_URL"`

	// Auth token for Turso/LibSQL
	AuthToken string `env:"DB_AUTH_TOKEN"`

	SSLMode string `env:"DB_SSL_MODE" envDefault:"disable"` // PostgreSQL only
	Params  string `env:"DB_PARAMS"`

	// Connection Pool Settings
	MaxOpenConns    int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime int `env:"DB_CONN_MAX_LIFETIME" envDefault:"300"` // seconds
	ConnMaxIdleTime int `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"60"` // seconds

	Debug bool `env:"DB_DEBUG" envDefault:"false"`

	// OptionsTable names the table backing OptionStore.
	OptionsTable string `env:"DB_OPTIONS_TABLE" envDefault:"beaver_options"`
	AutoMigrate  bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`
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
