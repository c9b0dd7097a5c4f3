// Package main provides the boxtree command, which builds multiblock box
// trees from layout files and answers overlap queries against them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/boxtree/pkg/version"
)

// exitCodeValidationFailure is the exit code for validation failures.
const exitCodeValidationFailure = 2

// errValidationFailed marks a completed validation that found problems.
var errValidationFailed = errors.New("validation failed")

func main() {
	version.InitBinaryVersion()

	err := newRootCmd().ExecuteContext(context.Background())
	if err == nil {
		return
	}

	if errors.Is(err, errValidationFailed) {
		os.Exit(exitCodeValidationFailure)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "boxtree",
		Short: "Multiblock box tree - overlap queries across block boundaries",
		Long: `boxtree indexes integer boxes spread over the blocks of a multiblock mesh
and finds the boxes overlapping a query in its block and the adjacent
blocks, optionally following connections that cross a singularity.

Commands:
  query     Run overlap queries from a layout file or the command line
  stats     Show per-block tree statistics
  refine    Write a refined or coarsened copy of a layout
  validate  Check a layout file against the layout schema`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "path to config file (default: search ./config.yaml, ./config, /etc/boxtree)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(refineCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "boxtree %s\n", version.String())
		},
	}
}
