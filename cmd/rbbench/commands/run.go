package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/rbbench/internal/bench"
	"github.com/Sumatoshi-tech/rbbench/internal/config"
	"github.com/Sumatoshi-tech/rbbench/internal/observability"
	"github.com/Sumatoshi-tech/rbbench/internal/report"
)

// RunCommand holds configuration and dependencies for the run command.
type RunCommand struct {
	configPath   string
	rounds       int
	baseExponent int
	lookups      int
	hashCapacity int
	hashMaxLoad  float64
	containers   []string
	hibernate    bool
	out          string
	reportPath   string
	reportFormat string
	plotPath     string
	metricsAddr  string
	noColor      bool

	loadConfig configLoader
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	return newRunCommandWithDeps(config.LoadConfig)
}

func newRunCommandWithDeps(loadConfig configLoader) *cobra.Command {
	rc := &RunCommand{loadConfig: loadConfig}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark rounds",
		Long: `Run doubling-size rounds of bulk insertion and lookup for each selected
container. Round i inserts 2^(base-exponent+i) keys, then looks up the keys
"0" through "lookups-1". Lookup times are written as TSV, one row per round.`,
		Args: cobra.NoArgs,
		RunE: rc.run,
	}

	cmd.Flags().StringVar(&rc.configPath, "config", "", "Config file path (default: .rbbench.yaml in CWD or $HOME)")
	cmd.Flags().IntVar(&rc.rounds, "rounds", config.DefaultRounds, "Number of doubling rounds")
	cmd.Flags().IntVar(&rc.baseExponent, "base-exponent", config.DefaultBaseExponent, "Round 0 inserts 2^base-exponent keys")
	cmd.Flags().IntVar(&rc.lookups, "lookups", config.DefaultLookups, "Lookups per container per round")
	cmd.Flags().IntVar(&rc.hashCapacity, "hash-capacity", config.DefaultHashCapacity, "Hash table bucket count")
	cmd.Flags().Float64Var(&rc.hashMaxLoad, "hash-max-load", config.DefaultHashMaxLoad, "Hash table load factor that triggers doubling (0 = fixed buckets)")
	cmd.Flags().StringSliceVar(&rc.containers, "containers", config.DefaultContainers, "Containers to measure: hashtable, rbtree, map")
	cmd.Flags().BoolVar(&rc.hibernate, "hibernate", false, "Hibernate and boot the tree between insertion and lookup")
	cmd.Flags().StringVar(&rc.out, "out", config.DefaultTSVPath, "TSV output path (- for stdout)")
	cmd.Flags().StringVar(&rc.reportPath, "report", "", "Write a full report to this path")
	cmd.Flags().StringVar(&rc.reportFormat, "report-format", config.DefaultReportFormat, "Report format: json, yaml, gob")
	cmd.Flags().StringVar(&rc.plotPath, "plot", "", "Write an HTML chart to this path")
	cmd.Flags().StringVar(&rc.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := rc.resolveConfig(cmd)
	if err != nil {
		return err
	}

	providers, err := observability.Init(observabilityConfig(cfg, observability.ModeCLI))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	ctx := cmd.Context()

	defer shutdownTelemetry(ctx, providers)

	if providers.MetricsHandler != nil {
		srv := observability.ServeMetrics(cfg.Telemetry.MetricsAddr, providers.MetricsHandler, func(err error) {
			providers.Logger.Error("metrics endpoint stopped", "error", err)
		})
		defer srv.Close()

		providers.Logger.Info("serving metrics", "addr", cfg.Telemetry.MetricsAddr)
	}

	metrics, err := observability.NewBenchMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create bench metrics: %w", err)
	}

	runner := bench.NewRunner(benchOptions(cfg),
		bench.WithLogger(providers.Logger),
		bench.WithTracer(providers.Tracer),
		bench.WithMetrics(metrics),
	)

	res, runErr := runner.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("benchmark: %w", runErr)
	}

	if runErr != nil {
		providers.Logger.Warn("benchmark interrupted", "completed_rounds", len(res.Rounds))
	}

	err = writeArtifacts(cmd.OutOrStdout(), cfg, res)
	if err != nil {
		return err
	}

	return runErr
}

// resolveConfig loads the config and overrides it with explicitly set flags.
func (rc *RunCommand) resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := rc.loadConfig(rc.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("rounds") {
		cfg.Bench.Rounds = rc.rounds
	}

	if flags.Changed("base-exponent") {
		cfg.Bench.BaseExponent = rc.baseExponent
	}

	if flags.Changed("lookups") {
		cfg.Bench.Lookups = rc.lookups
	}

	if flags.Changed("hash-capacity") {
		cfg.Bench.HashCapacity = rc.hashCapacity
	}

	if flags.Changed("hash-max-load") {
		cfg.Bench.HashMaxLoad = rc.hashMaxLoad
	}

	if flags.Changed("containers") {
		cfg.Bench.Containers = rc.containers
	}

	if flags.Changed("hibernate") {
		cfg.Bench.Hibernate = rc.hibernate
	}

	if flags.Changed("out") {
		cfg.Output.TSVPath = rc.out
	}

	if flags.Changed("report") {
		cfg.Output.ReportPath = rc.reportPath
	}

	if flags.Changed("report-format") {
		cfg.Output.ReportFormat = rc.reportFormat
	}

	if flags.Changed("plot") {
		cfg.Output.PlotPath = rc.plotPath
	}

	if flags.Changed("metrics-addr") {
		cfg.Telemetry.MetricsAddr = rc.metricsAddr
	}

	if flags.Changed("no-color") {
		cfg.Output.NoColor = rc.noColor
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate flags: %w", err)
	}

	return cfg, nil
}

func benchOptions(cfg *config.Config) bench.Options {
	return bench.Options{
		Rounds:       cfg.Bench.Rounds,
		BaseExponent: cfg.Bench.BaseExponent,
		Lookups:      cfg.Bench.Lookups,
		Containers:   cfg.Bench.Containers,
		Hibernate:    cfg.Bench.Hibernate,
		Container: bench.ContainerOptions{
			HashCapacity: cfg.Bench.HashCapacity,
			HashMaxLoad:  cfg.Bench.HashMaxLoad,
		},
	}
}

func writeArtifacts(stdout io.Writer, cfg *config.Config, res *bench.Results) error {
	err := writeFileOrStdout(stdout, cfg.Output.TSVPath, func(w io.Writer) error {
		return report.WriteTSV(w, res)
	})
	if err != nil {
		return err
	}

	if cfg.Output.TSVPath != "-" {
		report.WriteSummary(stdout, res, report.SummaryOptions{NoColor: cfg.Output.NoColor})
	}

	if cfg.Output.ReportPath != "" {
		codec, codecErr := report.CodecFor(cfg.Output.ReportFormat)
		if codecErr != nil {
			return codecErr
		}

		err = report.Save(cfg.Output.ReportPath, codec, res)
		if err != nil {
			return err
		}
	}

	if cfg.Output.PlotPath != "" {
		err = writeFileOrStdout(stdout, cfg.Output.PlotPath, func(w io.Writer) error {
			return report.WritePlot(w, res)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// writeFileOrStdout creates path and hands it to write; "-" writes to stdout.
func writeFileOrStdout(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(stdout)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	err = write(file)
	if err != nil {
		file.Close()

		return err
	}

	err = file.Close()
	if err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	return nil
}
