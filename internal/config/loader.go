package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".rbbench"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for rbbench settings.
const envPrefix = "RBBENCH"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("bench.rounds", DefaultRounds)
	viperCfg.SetDefault("bench.base_exponent", DefaultBaseExponent)
	viperCfg.SetDefault("bench.lookups", DefaultLookups)
	viperCfg.SetDefault("bench.hash_capacity", DefaultHashCapacity)
	viperCfg.SetDefault("bench.hash_max_load", DefaultHashMaxLoad)
	viperCfg.SetDefault("bench.containers", DefaultContainers)
	viperCfg.SetDefault("bench.hibernate", DefaultHibernate)

	viperCfg.SetDefault("output.tsv_path", DefaultTSVPath)
	viperCfg.SetDefault("output.report_path", "")
	viperCfg.SetDefault("output.report_format", DefaultReportFormat)
	viperCfg.SetDefault("output.plot_path", "")
	viperCfg.SetDefault("output.no_color", false)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", DefaultLogJSON)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultOTLPInsecure)
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.metrics_addr", "")
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultSampleRatio)

	viperCfg.SetDefault("selfcheck.keys", DefaultSelfCheckKeys)
	viperCfg.SetDefault("selfcheck.seed", DefaultSelfCheckSeed)
}
