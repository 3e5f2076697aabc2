// Package config loads rbbench settings from defaults, a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/rbbench/internal/bench"
	"github.com/Sumatoshi-tech/rbbench/internal/report"
)

// Default configuration values.
const (
	DefaultRounds        = 18
	DefaultBaseExponent  = 10
	DefaultLookups       = 1000000
	DefaultHashCapacity  = 300
	DefaultHashMaxLoad   = 0.0
	DefaultHibernate     = false
	DefaultTSVPath       = "out.txt"
	DefaultReportFormat  = report.FormatJSON
	DefaultLogLevel      = "info"
	DefaultLogJSON       = false
	DefaultOTLPInsecure  = false
	DefaultSampleRatio   = 1.0
	DefaultSelfCheckKeys = 2000
	DefaultSelfCheckSeed = 1
	maxKeyExponent       = 30
	maxSampleRatio       = 1.0
)

// DefaultContainers is the container set of the classic benchmark.
var DefaultContainers = []string{bench.Hashtable, bench.RBTree}

// Sentinel validation errors.
var (
	ErrInvalidRounds       = errors.New("rounds must be positive")
	ErrInvalidBaseExponent = errors.New("base exponent must be non-negative")
	ErrKeySpaceTooLarge    = errors.New("base exponent plus rounds exceeds 2^31 keys")
	ErrInvalidLookups      = errors.New("lookups must be non-negative")
	ErrInvalidHashCapacity = errors.New("hash capacity must be positive")
	ErrInvalidHashMaxLoad  = errors.New("hash max load factor must be non-negative")
	ErrNoContainers        = errors.New("at least one container is required")
	ErrUnknownContainer    = errors.New("unknown container")
	ErrUnknownFormat       = errors.New("unknown report format")
	ErrInvalidSampleRatio  = errors.New("sample ratio must be within [0, 1]")
	ErrInvalidSelfCheck    = errors.New("selfcheck keys must be positive")
)

// Config is the top-level configuration struct for rbbench.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Bench     BenchConfig     `mapstructure:"bench"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	SelfCheck SelfCheckConfig `mapstructure:"selfcheck"`
}

// BenchConfig holds the timing harness knobs.
type BenchConfig struct {
	Rounds       int      `mapstructure:"rounds"`
	BaseExponent int      `mapstructure:"base_exponent"`
	Lookups      int      `mapstructure:"lookups"`
	HashCapacity int      `mapstructure:"hash_capacity"`
	HashMaxLoad  float64  `mapstructure:"hash_max_load"`
	Containers   []string `mapstructure:"containers"`
	Hibernate    bool     `mapstructure:"hibernate"`
}

// OutputConfig holds artifact paths. Empty paths disable the artifact,
// except TSVPath which always has a value.
type OutputConfig struct {
	TSVPath      string `mapstructure:"tsv_path"`
	ReportPath   string `mapstructure:"report_path"`
	ReportFormat string `mapstructure:"report_format"`
	PlotPath     string `mapstructure:"plot_path"`
	NoColor      bool   `mapstructure:"no_color"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds OpenTelemetry and Prometheus settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	MetricsAddr  string  `mapstructure:"metrics_addr"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// SelfCheckConfig holds the invariant self-check settings.
type SelfCheckConfig struct {
	Keys int    `mapstructure:"keys"`
	Seed uint64 `mapstructure:"seed"`
}

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	benchErr := c.validateBench()
	if benchErr != nil {
		return benchErr
	}

	_, codecErr := report.CodecFor(c.Output.ReportFormat)
	if codecErr != nil {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, c.Output.ReportFormat)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > maxSampleRatio {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	if c.SelfCheck.Keys < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidSelfCheck, c.SelfCheck.Keys)
	}

	return nil
}

func (c *Config) validateBench() error {
	b := c.Bench

	if b.Rounds < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidRounds, b.Rounds)
	}

	if b.BaseExponent < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBaseExponent, b.BaseExponent)
	}

	// The last round inserts 2^(BaseExponent+Rounds-1) keys.
	if b.BaseExponent+b.Rounds-1 > maxKeyExponent {
		return fmt.Errorf("%w: %d+%d", ErrKeySpaceTooLarge, b.BaseExponent, b.Rounds)
	}

	if b.Lookups < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLookups, b.Lookups)
	}

	if b.HashCapacity < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidHashCapacity, b.HashCapacity)
	}

	if b.HashMaxLoad < 0 {
		return fmt.Errorf("%w: %g", ErrInvalidHashMaxLoad, b.HashMaxLoad)
	}

	if len(b.Containers) == 0 {
		return ErrNoContainers
	}

	for _, name := range b.Containers {
		if !slices.Contains(bench.ContainerNames(), name) {
			return fmt.Errorf("%w: %q", ErrUnknownContainer, name)
		}
	}

	return nil
}
