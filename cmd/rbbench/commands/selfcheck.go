package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/rbbench/internal/bench"
	"github.com/Sumatoshi-tech/rbbench/internal/config"
	"github.com/Sumatoshi-tech/rbbench/internal/observability"
	"github.com/Sumatoshi-tech/rbbench/internal/report"
)

// NewSelfCheckCommand creates the selfcheck command.
func NewSelfCheckCommand() *cobra.Command {
	return newSelfCheckCommandWithDeps(config.LoadConfig)
}

func newSelfCheckCommandWithDeps(loadConfig configLoader) *cobra.Command {
	var (
		configPath string
		keys       int
		seed       uint64
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "selfcheck",
		Short: "Verify tree invariants under random mutations",
		Long: `Insert, remove and re-insert keys in a seeded random order, checking every
red-black invariant after each mutation and comparing answers with a Go map.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("keys") {
				cfg.SelfCheck.Keys = keys
			}

			if cmd.Flags().Changed("seed") {
				cfg.SelfCheck.Seed = seed
			}

			if cmd.Flags().Changed("no-color") {
				cfg.Output.NoColor = noColor
			}

			err = cfg.Validate()
			if err != nil {
				return fmt.Errorf("validate flags: %w", err)
			}

			obsCfg := observabilityConfig(cfg, observability.ModeSelfCheck)
			obsCfg.Prometheus = false

			providers, err := observability.Init(obsCfg)
			if err != nil {
				return fmt.Errorf("init observability: %w", err)
			}
			defer shutdownTelemetry(cmd.Context(), providers)

			ctx, span := providers.Tracer.Start(cmd.Context(), "rbbench.selfcheck")
			defer span.End()

			stats, err := bench.SelfCheck(ctx, cfg.SelfCheck.Keys, cfg.SelfCheck.Seed)
			if err != nil {
				report.Verdict(cmd.OutOrStdout(), false, cfg.Output.NoColor, "%v", err)

				return err
			}

			providers.Logger.InfoContext(ctx, "selfcheck complete",
				"keys", cfg.SelfCheck.Keys, "seed", cfg.SelfCheck.Seed, "verifies", stats.Verifies)

			report.Verdict(cmd.OutOrStdout(), true, cfg.Output.NoColor,
				"%d inserts, %d removes, %d duplicate inserts, %d verifications, %d values released (seed %d)",
				stats.Inserts, stats.Removes, stats.Duplicates, stats.Verifies, stats.Released, cfg.SelfCheck.Seed)

			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file path")
	cmd.Flags().IntVar(&keys, "keys", config.DefaultSelfCheckKeys, "Number of distinct keys")
	cmd.Flags().Uint64Var(&seed, "seed", config.DefaultSelfCheckSeed, "Random seed")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}
