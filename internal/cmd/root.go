// Package cmd provides the flakeid command-line interface.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuarp/flakeid/internal/app"
)

// overrideFlags maps persistent flags to the config keys they replace.
var overrideFlags = map[string]string{
	"worker-id": "generator.worker_id",
	"epoch":     "generator.epoch",
	"mode":      "generator.mode",
	"strategy":  "uid.strategy",
	"encoding":  "uid.encoding",
	"log-level": "logging.level",
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "flakeid",
		Short: "Generate and decompose 64-bit snowflake identifiers.",
		Long: `flakeid generates time-ordered 64-bit identifiers laid out as ` +
			`41 bits of milliseconds since a custom epoch, 10 bits of worker id ` +
			`and 12 bits of sequence, and decomposes them back into those fields.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "path to a YAML config file (default: config.yaml, .env, then built-in defaults)")
	flags.Uint16("worker-id", 0, "worker id (0-1023)")
	flags.Int64("epoch", app.DefaultEpoch, "custom epoch in milliseconds since the Unix epoch")
	flags.String("mode", "synced", "generator adapter: local|synced|async")
	flags.String("strategy", "snowflake", "uid strategy: snowflake|uuidv7")
	flags.String("encoding", "decimal", "id encoding: decimal|base2|base32|base36|base58|base64|hex")
	flags.String("log-level", "info", "log level: debug|info|warn|error")

	root.AddCommand(newGenerateCmd(), newDecomposeCmd(), newBenchCmd())
	return root
}

// appOptions turns the flags the user actually set into app options.
func appOptions(cmd *cobra.Command) app.Options {
	opts := app.Options{Overrides: map[string]any{}}
	opts.ConfigPath, _ = cmd.Flags().GetString("config")

	for flag, key := range overrideFlags {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		opts.Overrides[key] = f.Value.String()
	}
	return opts
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
