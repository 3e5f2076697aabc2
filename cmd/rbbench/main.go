// Package main provides the entry point for the rbbench CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/rbbench/cmd/rbbench/commands"
	"github.com/Sumatoshi-tech/rbbench/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "rbbench",
		Short: "Red-black tree versus hash table lookup benchmark",
		Long: `rbbench times bulk insertion and lookup of decimal string keys in an
arena-backed red-black tree, a separate-chaining hash table and the Go map,
doubling the key count every round.

Commands:
  run        Run the benchmark rounds
  render     Re-render a saved report
  selfcheck  Verify tree invariants under random mutations`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewRenderCommand())
	rootCmd.AddCommand(commands.NewSelfCheckCommand())
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rbbench %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
