package app

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"whisper/internal/domain"
	"whisper/internal/store"
)

// Storage backends.
const (
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// ConfigFile is the config file name inside the home directory.
const ConfigFile = "config.yaml"

// Config holds runtime wiring options for building the app.
type Config struct {
	Home     string                `yaml:"home"`      // config directory, e.g. $HOME/.whisper
	RelayURL string                `yaml:"relay_url"` // relay base URL, e.g. http://127.0.0.1:8080
	Address  domain.SessionAddress `yaml:"address"`
	Storage  StorageConfig         `yaml:"storage"`
	Session  SessionConfig         `yaml:"session"`
	Log      LogConfig             `yaml:"log"`

	HTTP *http.Client `yaml:"-"` // optional; defaults to http.DefaultClient
}

// StorageConfig selects the key store backend.
type StorageConfig struct {
	Backend string `yaml:"backend"`
}

// SessionConfig tunes session records.
type SessionConfig struct {
	MaxStates int `yaml:"max_states"`
}

// LogConfig selects log level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig(home string) Config {
	c := Config{Home: home}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.RelayURL == "" {
		c.RelayURL = "http://127.0.0.1:8080"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendBadger
	}
	if c.Session.MaxStates <= 0 {
		c.Session.MaxStates = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate reports settings that cannot be wired.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendBadger:
		if c.Home == "" {
			return errors.New("config: badger storage needs a home directory")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	if c.RelayURL == "" {
		return errors.New("config: relay_url is empty")
	}
	return nil
}

// LoadConfig reads home/config.yaml, filling unset fields with defaults. A
// missing file yields DefaultConfig(home).
func LoadConfig(home string) (Config, error) {
	data, found, err := store.ReadFile(filepath.Join(home, ConfigFile))
	if err != nil {
		return Config{}, err
	}
	if !found {
		return DefaultConfig(home), nil
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", ConfigFile, err)
	}
	if c.Home == "" {
		c.Home = home
	}
	c.applyDefaults()
	return c, nil
}

// SaveConfig writes c to c.Home/config.yaml.
func SaveConfig(c Config) error {
	if err := os.MkdirAll(c.Home, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return store.WriteFile(filepath.Join(c.Home, ConfigFile), data, 0o600)
}
