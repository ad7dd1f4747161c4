package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joshuarp/flakeid/internal/app"
	"github.com/joshuarp/flakeid/internal/shared/snowflake"
)

// benchResult summarizes one contention run.
type benchResult struct {
	Total      int
	Duplicates int
	Elapsed    time.Duration
}

func (r benchResult) perMillisecond() float64 {
	ms := float64(r.Elapsed) / float64(time.Millisecond)
	if ms <= 0 {
		return float64(r.Total)
	}
	return float64(r.Total) / ms
}

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Draw ids from many goroutines and verify they are unique",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return app.Execute(cmd.Context(), appOptions(cmd), func(ctx context.Context, deps app.Deps) error {
				workers := deps.Config.GetInt("bench.workers")
				if cmd.Flags().Changed("workers") {
					workers, _ = cmd.Flags().GetInt("workers")
				}
				perWorker := deps.Config.GetInt("bench.per_worker")
				if cmd.Flags().Changed("per-worker") {
					perWorker, _ = cmd.Flags().GetInt("per-worker")
				}

				if deps.Settings.Mode == snowflake.ModeLocal && workers > 1 {
					return fmt.Errorf("mode %q is single-owner, use --workers=1", snowflake.ModeLocal)
				}

				result, err := runBench(ctx, deps.Generator, workers, perWorker)
				if err != nil {
					return err
				}

				deps.Logger.Info("bench finished",
					"mode", deps.Settings.Mode,
					"workers", workers,
					"per_worker", perWorker,
					"elapsed", result.Elapsed.String(),
				)
				fmt.Fprintf(out, "generated %d ids in %s (%.2f ids/ms), duplicates=%d\n",
					result.Total, result.Elapsed, result.perMillisecond(), result.Duplicates)

				if result.Duplicates > 0 {
					return fmt.Errorf("bench produced %d duplicate ids", result.Duplicates)
				}
				return nil
			})
		},
	}

	cmd.Flags().Int("workers", 16, "number of concurrent callers")
	cmd.Flags().Int("per-worker", 100000, "identifiers drawn by each caller")
	return cmd
}

func runBench(ctx context.Context, gen snowflake.Generator, workers, perWorker int) (benchResult, error) {
	if workers <= 0 || perWorker <= 0 {
		return benchResult{}, fmt.Errorf("workers and per-worker must be positive, got %d and %d", workers, perWorker)
	}

	results := make([][]int64, workers)
	group, ctx := errgroup.WithContext(ctx)

	start := time.Now()
	for w := 0; w < workers; w++ {
		group.Go(func() error {
			ids := make([]int64, perWorker)
			for i := range ids {
				id, err := gen.NextID(ctx)
				if err != nil {
					return err
				}
				ids[i] = id
			}
			results[w] = ids
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return benchResult{}, err
	}
	elapsed := time.Since(start)

	seen := make(map[int64]struct{}, workers*perWorker)
	duplicates := 0
	for _, ids := range results {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				duplicates++
				continue
			}
			seen[id] = struct{}{}
		}
	}

	return benchResult{Total: workers * perWorker, Duplicates: duplicates, Elapsed: elapsed}, nil
}
