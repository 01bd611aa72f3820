// Package main is the entry point for venuectl, an offline tool that ranks a
// YAML catalog the same way the API does.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "venuectl",
		Short: "Inspect venue filtering and ranking offline",
		Long: `venuectl loads a venue catalog and an optional user profile from YAML files
and runs the same filter and ranking pipeline as the API server. Use it to
check calibration changes or seed data without starting the server.`,
		SilenceUsage: true,
	}
	root.AddCommand(newRankCmd(), newVersionCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
