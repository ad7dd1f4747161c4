package config

// EnvPrefix prefixes environment overrides, e.g. FLAKEID_GENERATOR_WORKER_ID.
const EnvPrefix = "FLAKEID"

// Options configures the config loader.
type Options struct {
	// YAMLPath is the path to the primary YAML config file.
	YAMLPath string

	// EnvPath is the path to the fallback .env file, used only when YAML is absent.
	EnvPath string

	// Defaults are applied beneath file and environment values.
	Defaults map[string]any
}

// ConfigProvider is the interface consumers depend on for reading configuration.
// Implementations must be safe for concurrent use.
type ConfigProvider interface {
	// GetString returns the value associated with the key as a string.
	GetString(key string) string

	// GetInt returns the value associated with the key as an int.
	GetInt(key string) int

	// GetInt64 returns the value associated with the key as an int64.
	GetInt64(key string) int64

	// Set overrides a key at runtime, ahead of file and environment values.
	Set(key string, value any)

	// WatchChanges starts watching the config file for changes (YAML only).
	// Non-blocking: spawns a background goroutine.
	WatchChanges()

	// OnChange registers a callback that fires after a successful config reload.
	// Multiple callbacks can be registered; they execute in registration order.
	OnChange(fn func())

	// StopWatching stops delivering reload callbacks.
	StopWatching()

	// Source returns which config source is active: "yaml", "env" or "defaults".
	Source() string
}
