package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/joshuarp/flakeid/internal/shared/config"
	"github.com/joshuarp/flakeid/internal/shared/snowflake"
	"github.com/joshuarp/flakeid/internal/shared/uid"
)

// Deps is what a command receives once the app has started.
type Deps struct {
	fx.In

	Config    config.ConfigProvider
	Logger    *slog.Logger
	Settings  GeneratorSettings
	Generator snowflake.Generator
	UID       uid.UIDGenerator
}

// DecodeDeps is the subset of Deps that reading identifiers needs. Nothing in
// it builds a generator, so an epoch the generator would reject still works.
type DecodeDeps struct {
	fx.In

	Config   config.ConfigProvider
	Logger   *slog.Logger
	Settings GeneratorSettings
}

// Task is a unit of command work run between app start and stop.
type Task func(ctx context.Context, deps Deps) error

// DecodeTask is a Task that never draws identifiers.
type DecodeTask func(ctx context.Context, deps DecodeDeps) error

func registerLifecycle(
	lifecycle fx.Lifecycle,
	cfg config.ConfigProvider,
	settings GeneratorSettings,
	logger *slog.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			cfg.OnChange(func() {
				if cfg.GetInt("generator.worker_id") != int(settings.WorkerID) ||
					cfg.GetInt64("generator.epoch") != settings.Epoch {
					logger.Warn("generator config changed, restart to apply",
						"worker_id", cfg.GetInt("generator.worker_id"),
						"epoch", cfg.GetInt64("generator.epoch"),
					)
				}
			})
			cfg.WatchChanges()

			logger.Info("generator started",
				"config_source", cfg.Source(),
				"mode", settings.Mode,
				"strategy", settings.Strategy,
				"worker_id", settings.WorkerID,
				"epoch", settings.Epoch,
			)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cfg.StopWatching()
			logger.Info("generator stopped")
			return nil
		},
	})
}

// Execute starts the app, runs task with its dependencies and stops the app.
// Task and shutdown errors are joined.
func Execute(ctx context.Context, opts Options, task Task) error {
	return execute(ctx, opts, task)
}

// ExecuteDecode is Execute for tasks that only decode identifiers. The
// generator is never constructed.
func ExecuteDecode(ctx context.Context, opts Options, task DecodeTask) error {
	return execute(ctx, opts, task)
}

// fx constructs only what the invoked deps reach, so D decides whether the
// generator is built.
func execute[D any, T ~func(context.Context, D) error](ctx context.Context, opts Options, task T) error {
	var deps D
	fxApp := New(opts, fx.Invoke(func(in D) { deps = in }))
	if err := fxApp.Err(); err != nil {
		return err
	}

	if err := fxApp.Start(ctx); err != nil {
		return fmt.Errorf("app: failed to start: %w", err)
	}

	taskErr := task(ctx, deps)

	stopCtx, cancel := context.WithTimeout(context.Background(), fxApp.StopTimeout())
	defer cancel()
	if err := fxApp.Stop(stopCtx); err != nil {
		return errors.Join(taskErr, fmt.Errorf("app: failed to stop: %w", err))
	}
	return taskErr
}
