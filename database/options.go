package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Option is one row of the options table.
type Option struct {
	Name      string `gorm:"primaryKey;size:191"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// OptionStore is a durable string key-value table. It satisfies the
// oauth.KeyValueStore contract without importing it.
type OptionStore struct {
	db    *gorm.DB
	table string
}

// NewOptionStore returns a store over table, defaulting to "beaver_options".
func NewOptionStore(db *gorm.DB, table string) *OptionStore {
	if table == "" {
		table = "beaver_options"
	}
	return &OptionStore{db: db, table: table}
}

// Migrate creates or updates the options table.
func (s *OptionStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Table(s.table).AutoMigrate(&Option{}); err != nil {
		return fmt.Errorf("migrate %s: %w", s.table, err)
	}
	return nil
}

// Get returns the stored value and whether the key exists.
func (s *OptionStore) Get(ctx context.Context, key string) (string, bool, error) {
	var opt Option
	err := s.db.WithContext(ctx).Table(s.table).Where("name = ?", key).Take(&opt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get option %q: %w", key, err)
	}
	return opt.Value, true, nil
}

// Set inserts or overwrites a value.
func (s *OptionStore) Set(ctx context.Context, key, value string) error {
	opt := Option{Name: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Table(s.table).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&opt).Error
	if err != nil {
		return fmt.Errorf("set option %q: %w", key, err)
	}
	return nil
}

// Ping checks the underlying connection.
func (s *OptionStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
