// Package database opens SQL connections with pure Go drivers and layers GORM
// on top of them. OptionStore uses that connection as a durable key-value
// table for integration settings such as access tokens.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gobeaver/beaver-connect/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Common errors
var (
	ErrInvalidDriver = errors.New("invalid database driver")
	ErrInvalidConfig = errors.New("invalid database configuration")
)

// Database wraps both sql.DB and gorm.DB providing unified access
type Database struct {
	sqlDB  *sql.DB
	gormDB *gorm.DB
	cfg    Config
}

// Builder loads a Config under a custom variable prefix.
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// Connect loads the prefixed configuration and opens the database.
func (b *Builder) Connect() (*Database, error) {
	cfg, err := GetConfig(config.WithPrefix(b.prefix))
	if err != nil {
		return nil, err
	}
	return Open(*cfg)
}

// Open creates the SQL pool and a GORM handle sharing it.
func Open(cfg Config) (*Database, error) {
	sqlDB, err := NewSQL(cfg)
	if err != nil {
		return nil, err
	}
	gormDB, err := NewGORM(cfg, sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return &Database{sqlDB: sqlDB, gormDB: gormDB, cfg: cfg}, nil
}

// SQL returns the underlying sql.DB instance
func (db *Database) SQL() *sql.DB {
	return db.sqlDB
}

// GORM returns the GORM handle.
func (db *Database) GORM() *gorm.DB {
	return db.gormDB
}

// Options returns an OptionStore over this connection, migrating its table
// when AutoMigrate is set.
func (db *Database) Options(ctx context.Context) (*OptionStore, error) {
	store := NewOptionStore(db.gormDB, db.cfg.OptionsTable)
	if db.cfg.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.sqlDB.Close()
}

// PingContext verifies the database connection is alive
func (db *Database) PingContext(ctx context.Context) error {
	return db.sqlDB.PingContext(ctx)
}

// NewSQL creates a new SQL database connection with given config
func NewSQL(cfg Config) (*sql.DB, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	driverName, dsn, err := driverDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewGORM creates a GORM instance from an existing SQL connection
func NewGORM(cfg Config, sqlDB *sql.DB) (*gorm.DB, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("%w: sql.DB instance is required for GORM", ErrInvalidConfig)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.New(mysql.Config{Conn: sqlDB})
	case "postgres", "postgresql":
		dialector = postgres.New(postgres.Config{Conn: sqlDB})
	case "sqlite", "sqlite3", "libsql", "turso":
		dialector = sqlite.Dialector{Conn: sqlDB}
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidDriver, cfg.Driver)
	}

	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if cfg.Debug {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	return gorm.Open(dialector, gormCfg)
}

func driverDSN(cfg Config) (driverName, dsn string, err error) {
	switch cfg.Driver {
	case "mysql":
		return "mysql", buildMySQLDSN(cfg), nil
	case "postgres", "postgresql":
		return "pgx", buildPostgresDSN(cfg), nil
	case "sqlite", "sqlite3":
		dsn = cfg.Database
		if dsn == "" {
			dsn = "file:sqlite.db?cache=shared&mode=rwc"
		}
		return "sqlite", dsn, nil
	case "libsql", "turso":
		dsn = cfg.URL
		if cfg.AuthToken != "" {
			dsn = fmt.Sprintf("%s?authToken=%s", cfg.URL, cfg.AuthToken)
		}
		return "libsql", dsn, nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrInvalidDriver, cfg.Driver)
	}
}

func validateConfig(cfg Config) error {
	switch cfg.Driver {
	case "":
		return errors.New("database driver required")
	case "sqlite", "sqlite3":
		return nil
	case "libsql", "turso":
		if cfg.URL == "" {
			return errors.New("turso requires URL to be set")
		}
		return nil
	}
	if cfg.URL == "" && (cfg.Host == "" || cfg.Database == "") {
		return errors.New("database connection details required")
	}
	return nil
}

func buildMySQLDSN(cfg Config) string {
	if cfg.URL != "" {
		return cfg.URL
	}

	port := cfg.Port
	if port == "" {
		port = "3306"
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s",
		cfg.Username, cfg.Password, cfg.Host, port, cfg.Database)

	params := []string{"charset=utf8mb4", "parseTime=True", "loc=UTC"}
	if cfg.Params != "" {
		params = append(params, cfg.Params)
	}
	return dsn + "?" + strings.Join(params, "&")
}

func buildPostgresDSN(cfg Config) string {
	if cfg.URL != "" {
		return cfg.URL
	}

	port := cfg.Port
	if port == "" {
		port = "5432"
	}

	parts := []string{
		fmt.Sprintf("host=%s", cfg.Host),
		fmt.Sprintf("port=%s", port),
		fmt.Sprintf("user=%s", cfg.Username),
		fmt.Sprintf("password=%s", cfg.Password),
		fmt.Sprintf("dbname=%s", cfg.Database),
		fmt.Sprintf("sslmode=%s", cfg.SSLMode),
	}
	if cfg.Params != "" {
		parts = append(parts, cfg.Params)
	}
	return strings.Join(parts, " ")
}
