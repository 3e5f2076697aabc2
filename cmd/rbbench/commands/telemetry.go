// Package commands implements CLI command handlers for rbbench.
package commands

import (
	"context"

	"github.com/Sumatoshi-tech/rbbench/internal/config"
	"github.com/Sumatoshi-tech/rbbench/internal/observability"
	"github.com/Sumatoshi-tech/rbbench/pkg/version"
)

// configLoader loads and validates configuration from an optional explicit path.
type configLoader func(path string) (*config.Config, error)

func observabilityConfig(cfg *config.Config, mode observability.AppMode) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.Prometheus = cfg.Telemetry.MetricsAddr != ""
	obsCfg.LogLevel = observability.ParseLevel(cfg.Logging.Level)
	obsCfg.LogJSON = cfg.Logging.JSON

	return obsCfg
}

// shutdownTelemetry flushes providers on a context detached from ctx's
// cancellation, so an interrupted command still exports what it recorded.
func shutdownTelemetry(ctx context.Context, providers observability.Providers) {
	err := providers.Shutdown(context.WithoutCancel(ctx))
	if err != nil {
		providers.Logger.WarnContext(ctx, "telemetry shutdown failed", "error", err)
	}
}
