package oauth

import (
	"context"
	"fmt"
)

// OptionKey returns the storage key of an integration-scoped option.
func OptionKey(settingsName, name string) string {
	return settingsName + "_" + name
}

// Settings stores an integration's options in a shared KeyValueStore under
// "<settings_name>_<name>" keys.
type Settings struct {
	kv           KeyValueStore
	settingsName string
}

// NewSettings scopes kv to settingsName.
func NewSettings(settingsName string, kv KeyValueStore) *Settings {
	return &Settings{kv: kv, settingsName: settingsName}
}

// Key returns the storage key for name.
func (s *Settings) Key(name string) string {
	return OptionKey(s.settingsName, name)
}

// Get returns the option value and whether it exists.
func (s *Settings) Get(ctx context.Context, name string) (string, bool, error) {
	if name == "" {
		return "", false, fmt.Errorf("%w: empty option name", ErrInvalidConfig)
	}
	return s.kv.Get(ctx, s.Key(name))
}

// Set creates or overwrites the option.
func (s *Settings) Set(ctx context.Context, name, value string) error {
	if name == "" {
		return fmt.Errorf("%w: empty option name", ErrInvalidConfig)
	}
	return s.kv.Set(ctx, s.Key(name), value)
}

// Store returns the underlying store.
func (s *Settings) Store() KeyValueStore { return s.kv }
