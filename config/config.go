package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultPrefix is prepended to every variable name unless LoadOptions says otherwise.
const DefaultPrefix = "BEAVER_"

// LoadOptions defines options for loading configuration from environment variables.
type LoadOptions struct {
	Prefix string // Prefix to prepend to environment variable names (default: "BEAVER_")
	Debug  bool   // Print every resolved variable while loading

	// Environment replaces the process environment when non-nil. Tests use it
	// to load a struct without touching os.Environ.
	Environment map[string]string
}

// WithPrefix returns LoadOptions using the given prefix.
func WithPrefix(prefix string) LoadOptions {
	return LoadOptions{Prefix: prefix}
}

// Load populates a struct from a .env file and environment variables.
//
// Fields are mapped with caarlos0/env tags:
//   - `env:"VAR_NAME"`: Maps the field to the specified environment variable
//   - `envDefault:"value"`: Provides a default value if the variable is not set
//   - `env:"VAR_NAME,required"`: Fails when the variable is missing
//
// Variable names are prefixed with LoadOptions.Prefix ("BEAVER_" by default).
//
// Example:
//
//	type Config struct {
//	    DatabaseURL string `env:"DATABASE_URL"`
//	    Port        int    `env:"PORT" envDefault:"8080"`
//	}
//
//	var cfg Config
//	err := config.Load(&cfg, config.LoadOptions{Prefix: "MYAPP_"})
//	// Will look for MYAPP_DATABASE_URL, MYAPP_PORT
func Load(cfg interface{}, opts ...LoadOptions) error {
	options := LoadOptions{Prefix: DefaultPrefix}
	if len(opts) > 0 {
		options = opts[0]
	}

	if options.Environment == nil {
		// A missing .env file is not an error.
		_ = godotenv.Load()
	}

	parseOpts := env.Options{
		Prefix:      options.Prefix,
		Environment: options.Environment,
	}
	if options.Debug || debugEnabled() {
		parseOpts.OnSet = func(tag string, value interface{}, isDefault bool) {
			src := "env"
			if isDefault {
				src = "default"
			}
			fmt.Printf("[BEAVER] %s=%v (%s)\n", tag, value, src)
		}
	}

	if err := env.ParseWithOptions(cfg, parseOpts); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func debugEnabled() bool {
	if os.Getenv("BEAVER_CONFIG_DEBUG") == "true" {
		return true
	}
	switch os.Getenv("env") {
	case "development", "dev", "test":
		return true
	}
	return false
}
