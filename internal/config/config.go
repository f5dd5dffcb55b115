package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Provider is the interface consumers depend on for reading configuration.
// Implementations must be safe for concurrent use.
type Provider interface {
	// GetString returns the value associated with the key as a string.
	GetString(key string) string

	// GetInt returns the value associated with the key as an int.
	GetInt(key string) int

	// GetBool returns the value associated with the key as a bool.
	GetBool(key string) bool

	// GetDuration returns the value associated with the key as a time.Duration.
	GetDuration(key string) time.Duration

	// IsSet checks whether the key is set in the config.
	IsSet(key string) bool

	// AllSettings returns all settings as a map.
	AllSettings() map[string]interface{}

	// Lookup resolves a ${NAME} placeholder variable: configuration keys
	// first (dot or underscore form), then the process environment.
	Lookup(name string) (string, bool)

	// OnChange registers a callback that fires after a successful config
	// file reload.
	OnChange(fn func())

	// WatchChanges starts watching the config file for changes.
	// Non-blocking; no-op when no config file is in use.
	WatchChanges()
}

// Options configures the loader.
type Options struct {
	// Path is an explicit config file path. Empty means the default search
	// (testrig.yaml in the working directory), and a missing default file
	// is not an error.
	Path string
}

var _ Provider = (*viperConfig)(nil)

type viperConfig struct {
	v         *viper.Viper
	file      string
	mu        sync.RWMutex
	callbacks []func()
}

// Load builds the provider: defaults, optional YAML file, TESTRIG_ env
// overrides. An explicitly given file that cannot be read is an error; the
// implicit default file is optional.
func Load(opts Options) (Provider, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TESTRIG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &viperConfig{v: v}

	switch {
	case opts.Path != "":
		v.SetConfigFile(opts.Path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", opts.Path, err)
		}
		cfg.file = opts.Path
	default:
		v.SetConfigName("testrig")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err == nil {
			cfg.file = v.ConfigFileUsed()
		} else if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("config: failed to read testrig.yaml: %w", err)
		}
	}

	return cfg, nil
}

func (c *viperConfig) GetString(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetString(key)
}

func (c *viperConfig) GetInt(key string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetInt(key)
}

func (c *viperConfig) GetBool(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetBool(key)
}

func (c *viperConfig) GetDuration(key string) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetDuration(key)
}

func (c *viperConfig) IsSet(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.IsSet(key)
}

func (c *viperConfig) AllSettings() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.AllSettings()
}

// Lookup resolves placeholder names for the data store. BASE_URL matches
// the configuration key base.url or base_url before falling back to the
// process environment.
func (c *viperConfig) Lookup(name string) (string, bool) {
	c.mu.RLock()
	dotted := strings.ToLower(strings.ReplaceAll(name, "_", "."))
	if c.v.IsSet(dotted) {
		val := c.v.GetString(dotted)
		c.mu.RUnlock()
		return val, true
	}
	if c.v.IsSet(strings.ToLower(name)) {
		val := c.v.GetString(strings.ToLower(name))
		c.mu.RUnlock()
		return val, true
	}
	c.mu.RUnlock()
	return os.LookupEnv(name)
}

func (c *viperConfig) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, fn)
}

func (c *viperConfig) WatchChanges() {
	if c.file == "" {
		return
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		c.mu.Lock()
		_ = c.v.ReadInConfig()
		cbs := make([]func(), len(c.callbacks))
		copy(cbs, c.callbacks)
		c.mu.Unlock()

		for _, fn := range cbs {
			fn()
		}
	})
	c.v.WatchConfig()
}
