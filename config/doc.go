// Package config loads struct-based configuration from environment variables,
// with support for custom prefixes and .env files.
//
// # Basic Usage
//
// Define a configuration struct with environment variable tags:
//
//	type Config struct {
//	    DatabaseURL string        `env:"DATABASE_URL"`
//	    Port        int           `env:"PORT" envDefault:"8080"`
//	    Timeout     time.Duration `env:"TIMEOUT" envDefault:"30s"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// # Custom Prefixes
//
//	// Looks up MYAPP_DATABASE_URL, MYAPP_PORT, ...
//	err := config.Load(&cfg, config.WithPrefix("MYAPP_"))
//
// Packages in this module expose the same thing as a builder:
//
//	cfg, err := oauth.WithPrefix("MYAPP_").GetConfig()
//	cfg, err := nonce.WithPrefix("MYAPP_").GetConfig()
//
// # Environment File Support
//
// A .env file in the working directory is loaded first. Variables already
// present in the process environment take precedence over .env values.
//
// # Debug Mode
//
//	export BEAVER_CONFIG_DEBUG=true
//	// or
//	err := config.Load(&cfg, config.LoadOptions{Prefix: "BEAVER_", Debug: true})
//
// Debug mode prints every resolved variable and whether it came from the
// environment or from its default.
//
// # Integration
//
//   - OAuth: BEAVER_OAUTH_* variables
//   - Nonces: BEAVER_NONCE_* variables
//   - Database: BEAVER_DB_* variables
//   - Cache: BEAVER_CACHE_* variables
package config
