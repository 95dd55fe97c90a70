// Command gorainbow generates, compresses and searches rainbow tables
// for password preimage recovery.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)

	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	root := newRootCmd(logger, &cfg.Level)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(logger *zap.Logger, level *zap.AtomicLevel) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "gorainbow",
		Short:         "Generate and search rainbow tables for password preimage recovery",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				level.SetLevel(zap.DebugLevel)
			}
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")

	root.AddCommand(
		newGenerateCmd(logger),
		newAttackCmd(logger),
		newCompressCmd(logger),
		newDecompressCmd(logger),
	)

	return root
}
