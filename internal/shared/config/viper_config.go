package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var _ ConfigProvider = (*viperConfig)(nil)

type viperConfig struct {
	v         *viper.Viper
	source    string
	callbacks []func()
	mu        sync.RWMutex
	done      chan struct{}
}

func newViper(defaults map[string]any) *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Init loads configuration from a YAML file (primary) or .env file (exclusive fallback).
// Returns error if neither file exists or parsing fails.
func Init(opts Options) (ConfigProvider, error) {
	v := newViper(opts.Defaults)
	cfg := &viperConfig{
		v:    v,
		done: make(chan struct{}),
	}

	switch {
	case fileExists(opts.YAMLPath):
		v.SetConfigFile(opts.YAMLPath)
		v.SetConfigType("yaml")
		cfg.source = "yaml"
	case fileExists(opts.EnvPath):
		v.SetConfigFile(opts.EnvPath)
		v.SetConfigType("env")
		cfg.source = "env"
	default:
		return nil, fmt.Errorf("config: no config file found (tried %q and %q)", opts.YAMLPath, opts.EnvPath)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read %s file: %w", cfg.source, err)
	}

	return cfg, nil
}

// Load tries each Options in order and falls back to defaults plus
// environment when no file is found. A file that exists but fails to parse
// is returned as an error.
func Load(defaults map[string]any, candidates ...Options) (ConfigProvider, error) {
	for _, opts := range candidates {
		if !fileExists(opts.YAMLPath) && !fileExists(opts.EnvPath) {
			continue
		}
		opts.Defaults = defaults
		return Init(opts)
	}

	return &viperConfig{
		v:      newViper(defaults),
		source: "defaults",
		done:   make(chan struct{}),
	}, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
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

func (c *viperConfig) GetInt64(key string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetInt64(key)
}

func (c *viperConfig) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v.Set(key, value)
}

func (c *viperConfig) Source() string { return c.source }

func (c *viperConfig) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, fn)
}

func (c *viperConfig) WatchChanges() {
	if c.source != "yaml" {
		return
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		select {
		case <-c.done:
			return
		default:
		}

		c.mu.Lock()
		err := c.v.ReadInConfig()
		cbs := make([]func(), len(c.callbacks))
		copy(cbs, c.callbacks)
		c.mu.Unlock()

		if err != nil {
			return
		}
		for _, fn := range cbs {
			fn()
		}
	})
	c.v.WatchConfig()
}

func (c *viperConfig) StopWatching() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}
