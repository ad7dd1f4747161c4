package app

import (
	"fmt"
	"log/slog"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/joshuarp/flakeid/internal/shared/config"
	sharedlog "github.com/joshuarp/flakeid/internal/shared/log"
)

// DefaultEpoch is 2025-01-01T00:00:00Z in milliseconds.
const DefaultEpoch int64 = 1735689600000

// Options carries command line input into the fx graph.
type Options struct {
	// ConfigPath, when set, must point at a readable YAML file.
	ConfigPath string

	// Overrides are applied on top of file and environment values.
	Overrides map[string]any
}

func defaults() map[string]any {
	return map[string]any{
		"generator.epoch":     DefaultEpoch,
		"generator.worker_id": 0,
		"generator.mode":      "synced",
		"uid.strategy":        "snowflake",
		"uid.encoding":        "decimal",
		"logging.level":       "info",
		"logging.format":      "json",
		"bench.workers":       16,
		"bench.per_worker":    100000,
	}
}

func New(opts Options, modules ...fx.Option) *fx.App {
	fxOpts := []fx.Option{
		fx.Supply(opts),
		CoreModule(),
		GeneratorModule(),
		fx.WithLogger(newFxLogger),
	}
	fxOpts = append(fxOpts, modules...)
	fxOpts = append(fxOpts, fx.Invoke(registerLifecycle))
	return fx.New(fxOpts...)
}

func CoreModule() fx.Option {
	return fx.Module("core",
		fx.Provide(
			provideConfig,
			sharedlog.NewLogger,
		),
	)
}

func newFxLogger(logger *slog.Logger) fxevent.Logger {
	l := &fxevent.SlogLogger{Logger: logger}
	l.UseLogLevel(slog.LevelDebug)
	return l
}

func provideConfig(opts Options) (config.ConfigProvider, error) {
	var (
		provider config.ConfigProvider
		err      error
	)

	if path := strings.TrimSpace(opts.ConfigPath); path != "" {
		provider, err = config.Init(config.Options{YAMLPath: path, Defaults: defaults()})
	} else {
		provider, err = config.Load(defaults(),
			config.Options{
				YAMLPath: "config.yaml",
				EnvPath:  ".env",
			},
			config.Options{
				YAMLPath: "config.yaml.example",
				EnvPath:  ".env.example",
			},
		)
	}
	if err != nil {
		return nil, fmt.Errorf("app: failed to load config: %w", err)
	}

	for key, value := range opts.Overrides {
		provider.Set(key, value)
	}
	return provider, nil
}
