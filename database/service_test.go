package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobeaver/beaver-connect/config"
)

func openSQLite(t *testing.T) *Database {
	t.Helper()
	db, err := Open(Config{
		Driver:       "sqlite",
		Database:     filepath.Join(t.TempDir(), "options.db"),
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOptionStore(t *testing.T) {
	ctx := context.Background()
	store, err := openSQLite(t).Options(ctx)
	require.NoError(t, err)

	_, ok, err := store.Get(ctx, "fb_access_token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "fb_access_token", "tok-1"))
	got, ok, err := store.Get(ctx, "fb_access_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", got)

	require.NoError(t, store.Set(ctx, "fb_access_token", "tok-2"))
	got, _, err = store.Get(ctx, "fb_access_token")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got)

	require.NoError(t, store.Ping(ctx))
}

func TestOptionStoreCustomTable(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	store := NewOptionStore(db.GORM(), "connect_settings")
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Set(ctx, "k", "v"))

	var n int
	require.NoError(t, db.SQL().QueryRowContext(ctx, "SELECT COUNT(*) FROM connect_settings").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "sqlite needs nothing else", cfg: Config{Driver: "sqlite"}},
		{name: "missing driver", cfg: Config{}, wantErr: true},
		{name: "turso without url", cfg: Config{Driver: "turso"}, wantErr: true},
		{name: "turso with url", cfg: Config{Driver: "libsql", URL: "libsql://db.turso.io"}},
		{name: "postgres with host", cfg: Config{Driver: "postgres", Host: "db", Database: "app"}},
		{name: "postgres with url", cfg: Config{Driver: "postgres", URL: "postgres://u:p@db/app"}},
		{name: "mysql without details", cfg: Config{Driver: "mysql"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDriverDSN(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		wantDriver string
		wantDSN    string
	}{
		{
			name:       "mysql from fields",
			cfg:        Config{Driver: "mysql", Host: "db", Database: "app", Username: "u", Password: "p"},
			wantDriver: "mysql",
			wantDSN:    "u:p@tcp(db:3306)/app?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name:       "postgres from fields",
			cfg:        Config{Driver: "postgres", Host: "db", Database: "app", Username: "u", Password: "p", SSLMode: "disable"},
			wantDriver: "pgx",
			wantDSN:    "host=db port=5432 user=u password=p dbname=app sslmode=disable",
		},
		{
			name:       "postgres url wins",
			cfg:        Config{Driver: "postgresql", URL: "postgres://u:p@db:5432/app"},
			wantDriver: "pgx",
			wantDSN:    "postgres://u:p@db:5432/app",
		},
		{
			name:       "libsql with token",
			cfg:        Config{Driver: "turso", URL: "libsql://db.turso.io", AuthToken: "tkn"},
			wantDriver: "libsql",
			wantDSN:    "libsql://db.turso.io?authToken=tkn",
		},
		{
			name:       "sqlite default file",
			cfg:        Config{Driver: "sqlite3"},
			wantDriver: "sqlite",
			wantDSN:    "file:sqlite.db?cache=shared&mode=rwc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, dsn, err := driverDSN(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.wantDSN, dsn)
		})
	}

	_, _, err := driverDSN(Config{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrInvalidDriver)
}

func TestGetConfig(t *testing.T) {
	cfg, err := GetConfig(config.LoadOptions{
		Prefix: "APP_",
		Environment: map[string]string{
			"APP_DB_DRIVER":    "Postgres",
			"APP_DATABASE_URL": "postgres://u:p@db/app",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, "postgres://u:p@db/app", cfg.URL)
	assert.Equal(t, "beaver_options", cfg.OptionsTable)
	assert.Equal(t, 25, cfg.MaxOpenConns)
}
