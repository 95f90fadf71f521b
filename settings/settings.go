// Package settings provides user-level key-value settings stores.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. VITRINE_IMAGE_MODEL.
const EnvPrefix = "VITRINE"

// Keys lists the settings the studio reads.
var Keys = []string{
	vitrine.SettingAPIKey,
	vitrine.SettingImageModel,
	vitrine.SettingAtlasWebhook,
	vitrine.SettingAtlasUser,
}

var (
	_ vitrine.SettingsProvider = (*Memory)(nil)
	_ vitrine.SettingsProvider = (*File)(nil)
)

// Memory is an in-process settings store.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates a store seeded with values, which may be nil.
func NewMemory(values map[string]string) *Memory {
	m := &Memory{values: make(map[string]string, len(values))}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

// GetString returns the value for key.
func (m *Memory) GetString(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// SetString stores value under key.
func (m *Memory) SetString(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// File is a YAML settings file with environment overrides.
// Values written with SetString are persisted immediately.
type File struct {
	mu   sync.Mutex
	path string
	v    *viper.Viper
}

// DefaultPath returns ~/.config/vitrine/settings.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "vitrine", "settings.yaml")
}

// OpenFile loads the settings file at path. A missing file is not an error.
func OpenFile(path string) (*File, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	return &File{path: path, v: v}, nil
}

// Path returns the settings file location.
func (f *File) Path() string { return f.path }

// GetString returns the value for key from the environment or the file.
func (f *File) GetString(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.v.IsSet(key) {
		return "", false
	}
	return f.v.GetString(key), true
}

// SetString stores value under key and rewrites the file.
// Environment overrides are not copied into the file.
func (f *File) SetString(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	w := viper.New()
	w.SetConfigFile(f.path)
	w.SetConfigType("yaml")
	if err := w.ReadInConfig(); err != nil && !isNotExist(err) {
		return fmt.Errorf("failed to read settings file: %w", err)
	}
	w.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := w.WriteConfigAs(f.path); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	f.v.Set(key, value)
	return nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.Is(err, os.ErrNotExist) || errors.As(err, &notFound)
}
