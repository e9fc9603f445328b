// Package config provides configuration management for the Safe Legs service.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "SAFE_LEGS"

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func LoadWithDefaults(configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// Read and expand the configuration file if it exists
	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// If file doesn't exist, continue with defaults and environment variables

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults registers defaults so a minimal config file still produces a
// runnable service. Pipeline and parlay policy defaults mirror the production
// constants in their packages.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "safe-legs")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("odds_provider.regions", "us,au")
	v.SetDefault("odds_provider.timeout_seconds", 10)
	v.SetDefault("odds_provider.retry_attempts", 3)
	v.SetDefault("odds_provider.requests_per_second", 2)
	v.SetDefault("odds_provider.cache_ttl_seconds", 300)

	v.SetDefault("estimator.heuristic_fallback", true)

	v.SetDefault("pipeline.min_odds", 1.05)
	v.SetDefault("pipeline.max_odds", 1.25)
	v.SetDefault("pipeline.min_model_probability", 0.75)
	v.SetDefault("pipeline.min_edge", 0.02)
	v.SetDefault("pipeline.min_expected_value", -0.05)
	v.SetDefault("pipeline.leg_cap", 20)
	v.SetDefault("pipeline.weight_probability", 0.4)
	v.SetDefault("pipeline.weight_ev", 0.3)
	v.SetDefault("pipeline.weight_edge", 0.2)
	v.SetDefault("pipeline.weight_consistency", 0.1)
	v.SetDefault("pipeline.rivalry_penalty", 5.6)

	v.SetDefault("parlay.ceiling_factor", 1.5)
	v.SetDefault("parlay.min_fraction", 0.90)
	v.SetDefault("parlay.top_k", 10)

	// Odds refresh ahead of the main weekend and midweek slates.
	v.SetDefault("fetch.schedules", []string{"0 9 * * MON", "0 9 * * THU"})
	v.SetDefault("fetch.timezone", "UTC")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 10)
	v.SetDefault("server.write_timeout_seconds", 30)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("features.scheduled_fetch_enabled", true)
}

// ReloadFromEnv reloads the configuration from the path named in
// SAFE_LEGS_CONFIG_PATH, if set.
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv(envPrefix + "_CONFIG_PATH"); envPath != "" {
		newCfg, err := Load(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}
	return nil
}
