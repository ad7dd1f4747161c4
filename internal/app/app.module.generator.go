package app

import (
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/joshuarp/flakeid/internal/shared/config"
	"github.com/joshuarp/flakeid/internal/shared/snowflake"
	"github.com/joshuarp/flakeid/internal/shared/uid"
)

// GeneratorSettings is the validated generator section of the config.
type GeneratorSettings struct {
	Epoch    int64
	WorkerID uint16
	Mode     snowflake.Mode
	Strategy uid.Strategy
	Encoding uid.Encoding
}

func GeneratorModule() fx.Option {
	return fx.Module("generator",
		fx.Provide(
			provideGeneratorSettings,
			provideGenerator,
			provideUIDGenerator,
		),
	)
}

func provideGeneratorSettings(cfg config.ConfigProvider) (GeneratorSettings, error) {
	workerID := cfg.GetInt("generator.worker_id")
	if workerID < 0 || workerID > snowflake.MaxWorkerID {
		return GeneratorSettings{}, fmt.Errorf("app: generator.worker_id=%d: %w", workerID, snowflake.ErrWorkerIDOutOfRange)
	}

	mode, err := snowflake.ParseMode(cfg.GetString("generator.mode"))
	if err != nil {
		return GeneratorSettings{}, fmt.Errorf("app: generator.mode: %w", err)
	}

	encoding, err := uid.ParseEncoding(cfg.GetString("uid.encoding"))
	if err != nil {
		return GeneratorSettings{}, fmt.Errorf("app: uid.encoding: %w", err)
	}

	strategy := uid.Strategy(cfg.GetString("uid.strategy"))
	switch strategy {
	case "":
		strategy = uid.StrategySnowflake
	case uid.StrategySnowflake, uid.StrategyUUIDv7:
	default:
		return GeneratorSettings{}, fmt.Errorf("app: uid.strategy: unknown strategy %q", strategy)
	}

	return GeneratorSettings{
		Epoch:    cfg.GetInt64("generator.epoch"),
		WorkerID: uint16(workerID),
		Mode:     mode,
		Strategy: strategy,
		Encoding: encoding,
	}, nil
}

func provideGenerator(settings GeneratorSettings, logger *slog.Logger) (snowflake.Generator, error) {
	gen, err := snowflake.NewGenerator(settings.Mode, settings.Epoch, settings.WorkerID)
	if err != nil {
		return nil, fmt.Errorf("app: failed to init snowflake generator: %w", err)
	}

	logger.Debug("snowflake generator created",
		"mode", settings.Mode,
		"worker_id", settings.WorkerID,
		"epoch", settings.Epoch,
	)
	return gen, nil
}

func provideUIDGenerator(settings GeneratorSettings, gen snowflake.Generator) (uid.UIDGenerator, error) {
	if settings.Strategy == uid.StrategyUUIDv7 {
		return uid.NewUUIDv7()
	}
	return uid.FromGenerator(gen, settings.Encoding), nil
}
