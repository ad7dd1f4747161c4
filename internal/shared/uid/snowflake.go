package uid

import (
	"context"
	"fmt"

	"github.com/joshuarp/flakeid/internal/shared/snowflake"
)

var _ UIDGenerator = (*snowflakeGenerator)(nil)

type snowflakeGenerator struct {
	gen      snowflake.Generator
	encoding Encoding
}

// NewSnowflake creates a Snowflake-based UIDGenerator.
// WorkerID must be unique per worker in a distributed setup (0–1023).
func NewSnowflake(opts Options) (UIDGenerator, error) {
	encoding, err := ParseEncoding(string(opts.Encoding))
	if err != nil {
		return nil, err
	}

	mode := opts.Mode
	if mode == "" {
		mode = snowflake.ModeSynced
	}

	gen, err := snowflake.NewGenerator(mode, opts.Epoch, opts.WorkerID)
	if err != nil {
		return nil, fmt.Errorf("uid: failed to create snowflake generator: %w", err)
	}
	return FromGenerator(gen, encoding), nil
}

// FromGenerator exposes an existing snowflake adapter as a UIDGenerator.
func FromGenerator(gen snowflake.Generator, encoding Encoding) UIDGenerator {
	if encoding == "" {
		encoding = EncodingDecimal
	}
	return &snowflakeGenerator{gen: gen, encoding: encoding}
}

func (g *snowflakeGenerator) Generate(ctx context.Context) (string, error) {
	id, err := g.gen.NextID(ctx)
	if err != nil {
		return "", fmt.Errorf("uid: failed to generate snowflake id: %w", err)
	}
	return Format(id, g.encoding)
}
