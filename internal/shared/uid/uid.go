package uid

import (
	"context"
	"fmt"

	"github.com/joshuarp/flakeid/internal/shared/snowflake"
)

// Strategy defines which UID generation algorithm to use.
type Strategy string

const (
	StrategySnowflake Strategy = "snowflake"
	StrategyUUIDv7    Strategy = "uuidv7"
)

// Options configures the UID generator.
type Options struct {
	// Strategy selects the generation algorithm.
	Strategy Strategy

	// Epoch is the custom epoch in ms since the Unix epoch (Snowflake only).
	Epoch int64

	// WorkerID identifies this worker in a distributed system (Snowflake only).
	// Valid range: 0–1023.
	WorkerID uint16

	// Mode selects the snowflake adapter. Empty means synced.
	Mode snowflake.Mode

	// Encoding selects the textual form of snowflake ids. Empty means decimal.
	Encoding Encoding
}

// UIDGenerator is the interface consumers depend on for generating unique identifiers.
// Implementations must be safe for concurrent use unless built with snowflake.ModeLocal.
type UIDGenerator interface {
	// Generate returns a new unique identifier as a string.
	Generate(ctx context.Context) (string, error)
}

// New creates a UIDGenerator based on the provided options.
// Returns an error if the strategy is unknown or configuration is invalid.
func New(opts Options) (UIDGenerator, error) {
	switch opts.Strategy {
	case StrategySnowflake:
		return NewSnowflake(opts)
	case StrategyUUIDv7:
		return NewUUIDv7()
	default:
		return nil, fmt.Errorf("uid: unknown strategy %q", opts.Strategy)
	}
}
