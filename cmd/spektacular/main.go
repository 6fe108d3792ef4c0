package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/jumppad-labs/spektacular/internal/runner/claude"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "spektacular",
		Short:         "Agent-agnostic tool for spec-driven development",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("debug", false, "enable debug logging and the debug panel")

	root.AddCommand(
		newInitCmd(),
		newNewCmd(),
		newPlanCmd(),
		newHistoryCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
