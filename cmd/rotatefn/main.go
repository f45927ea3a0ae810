package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/rotatefn/cmd/rotatefn/commands"
	"github.com/systmms/rotatefn/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		noColor bool
		debug   bool
	)

	opts := &commands.Options{}

	rootCmd := &cobra.Command{
		Use:   "rotatefn",
		Short: "Invocation harness tooling - validate and replay test documents",
		Long: `rotatefn works with local test documents for harness-based functions:
it validates their shape and replays their events through the same
invocation path a deployed function uses, with no deadline.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger with parsed flags
			opts.Logger = logging.New(debug, noColor)
			opts.Debug = debug
		},
	}

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewValidateCommand(opts),
		commands.NewReplayCommand(opts),
	)

	return rootCmd.Execute()
}
