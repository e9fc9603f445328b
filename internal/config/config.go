// Package config provides configuration management for the Safe Legs service.
package config

import (
	"fmt"
	"time"

	"github.com/yourusername/safe-legs/internal/parlay"
	"github.com/yourusername/safe-legs/internal/pipeline"
)

// Config represents the complete application configuration
type Config struct {
	App          AppConfig          `mapstructure:"app" validate:"required"`
	Database     DatabaseConfig     `mapstructure:"database" validate:"required"`
	OddsProvider OddsProviderConfig `mapstructure:"odds_provider" validate:"required"`
	Estimator    EstimatorConfig    `mapstructure:"estimator" validate:"required"`
	Pipeline     pipeline.Settings  `mapstructure:"pipeline"`
	Parlay       parlay.Settings    `mapstructure:"parlay"`
	Fetch        FetchConfig        `mapstructure:"fetch" validate:"required"`
	Server       ServerConfig       `mapstructure:"server" validate:"required"`
	Metrics      MetricsConfig      `mapstructure:"metrics" validate:"required"`
	Health       HealthConfig       `mapstructure:"health"`
	Features     FeaturesConfig     `mapstructure:"features"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// OddsProviderConfig represents the upstream odds API configuration
type OddsProviderConfig struct {
	BaseURL           string   `mapstructure:"base_url" validate:"required,url"`
	APIKey            string   `mapstructure:"api_key" validate:"required"`
	Regions           string   `mapstructure:"regions" validate:"required"`
	Sports            []string `mapstructure:"sports" validate:"required,min=1,sports"`
	TimeoutSeconds    int      `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts     int      `mapstructure:"retry_attempts" validate:"gte=0"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second" validate:"required,gt=0"`
	CacheTTLSeconds   int      `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
}

// EstimatorConfig represents the probability model configuration
type EstimatorConfig struct {
	ModelPath         string `mapstructure:"model_path"`
	HeuristicFallback bool   `mapstructure:"heuristic_fallback"`
}

// FetchConfig represents the odds fetch scheduling configuration
type FetchConfig struct {
	// Cron expressions in robfig/cron format, evaluated in Timezone.
	Schedules []string `mapstructure:"schedules" validate:"required,min=1"`
	Timezone  string   `mapstructure:"timezone" validate:"required"`
}

// ServerConfig represents the HTTP API configuration
type ServerConfig struct {
	Port                int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeoutSeconds  int      `mapstructure:"read_timeout_seconds" validate:"required,gt=0"`
	WriteTimeoutSeconds int      `mapstructure:"write_timeout_seconds" validate:"required,gt=0"`
	AllowedOrigins      []string `mapstructure:"allowed_origins"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// HealthConfig represents the health endpoint configuration
type HealthConfig struct {
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
}

// FeaturesConfig represents feature flags
type FeaturesConfig struct {
	PersistenceEnabled    bool `mapstructure:"persistence_enabled"`
	ScheduledFetchEnabled bool `mapstructure:"scheduled_fetch_enabled"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ProviderTimeout returns the odds provider request timeout as a duration
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.OddsProvider.TimeoutSeconds) * time.Second
}

// ProviderCacheTTL returns the odds response cache TTL as a duration
func (c *Config) ProviderCacheTTL() time.Duration {
	return time.Duration(c.OddsProvider.CacheTTLSeconds) * time.Second
}
