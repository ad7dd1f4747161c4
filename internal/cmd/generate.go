package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuarp/flakeid/internal/app"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print new identifiers, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			if count <= 0 {
				return fmt.Errorf("count must be positive, got %d", count)
			}

			out := cmd.OutOrStdout()
			return app.Execute(cmd.Context(), appOptions(cmd), func(ctx context.Context, deps app.Deps) error {
				for i := 0; i < count; i++ {
					id, err := deps.UID.Generate(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, id)
				}
				deps.Logger.Debug("identifiers generated", "count", count)
				return nil
			})
		},
	}

	cmd.Flags().IntP("count", "n", 1, "number of identifiers to generate")
	return cmd
}
