package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuarp/flakeid/internal/app"
	"github.com/joshuarp/flakeid/internal/shared/snowflake"
	"github.com/joshuarp/flakeid/internal/shared/uid"
)

type decomposeOutput struct {
	ID string `json:"id"`
	snowflake.Decomposed
	ISOTime string `json:"time"`
}

func newDecomposeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decompose <id>...",
		Short: "Split identifiers into timestamp, worker id and sequence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			out := cmd.OutOrStdout()
			return app.ExecuteDecode(cmd.Context(), appOptions(cmd), func(_ context.Context, deps app.DecodeDeps) error {
				enc := json.NewEncoder(out)
				for _, arg := range args {
					id, err := uid.Parse(arg, deps.Settings.Encoding)
					if err != nil {
						return err
					}

					parts, err := snowflake.Decompose(id, deps.Settings.Epoch)
					if err != nil {
						return fmt.Errorf("decompose %q: %w", arg, err)
					}

					result := decomposeOutput{
						ID:         arg,
						Decomposed: parts,
						ISOTime:    parts.Time().Format(time.RFC3339Nano),
					}
					if asJSON {
						if err := enc.Encode(result); err != nil {
							return err
						}
						continue
					}
					fmt.Fprintf(out, "id=%s timestamp=%d time=%s worker_id=%d sequence=%d\n",
						result.ID, result.Timestamp, result.ISOTime, result.WorkerID, result.Sequence)
				}
				return nil
			})
		},
	}

	cmd.Flags().Bool("json", false, "print one JSON object per identifier")
	return cmd
}
