package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = "3000"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50

	// DefaultRedisTTL is the cache entry lifetime in milliseconds used when REDIS_TTL is unset.
	DefaultRedisTTL = 5000
	// DefaultSchemaFile is where the sorted GraphQL schema is written.
	DefaultSchemaFile = "schema.graphql"
	// DefaultServiceName is the OpenTelemetry service.name resource attribute.
	DefaultServiceName = "RealEstateCRM"
)

// Exporter, driver and provider names accepted by the configuration.
const (
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterPrometheus = "prometheus"
	ExporterNone       = "none"

	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	SecretsEnv = "env"
	SecretsAWS = "aws"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > Environment variables > YAML config > Defaults
type Config struct {
	Port                 string          `yaml:"port" envconfig:"PORT"`
	ShutdownGracePeriod  time.Duration   `yaml:"shutdown_grace_period" split_words:"true"`
	ReadHeaderTimeout    time.Duration   `yaml:"read_header_timeout" split_words:"true"`
	WriteTimeout         time.Duration   `yaml:"write_timeout" split_words:"true"`
	IdleTimeout          time.Duration   `yaml:"idle_timeout" split_words:"true"`
	EnableRequestLogging bool            `yaml:"enable_request_logging" split_words:"true"`
	RateLimit            RateLimitConfig `yaml:"rate_limit" split_words:"true"`
	Log                  LogConfig       `yaml:"log"`
	GraphQL              GraphQLConfig   `yaml:"graphql"`
	Redis                RedisConfig     `yaml:"redis"`
	DB                   DatabaseConfig  `yaml:"db"`
	Otel                 TelemetryConfig `yaml:"otel"`
	Secrets              SecretsConfig   `yaml:"secrets"`
	ServeStaticRootPath  string          `yaml:"serve_static_root_path" envconfig:"SERVE_STATIC_ROOT_PATH"`
}

// RateLimitConfig controls the token bucket in front of the API. Zero disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// LogConfig selects the zap level and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GraphQLConfig holds the GRAPHQL_* settings.
type GraphQLConfig struct {
	Playground    bool   `yaml:"playground"`
	Introspection bool   `yaml:"introspection"`
	SchemaFile    string `yaml:"schema_file" split_words:"true"`
}

// IntrospectionEnabled reports whether introspection queries are allowed.
// The playground cannot work without introspection, so it implies it.
func (c GraphQLConfig) IntrospectionEnabled() bool {
	return c.Playground || c.Introspection
}

// RedisConfig holds the REDIS_* settings. TTL is in milliseconds.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	TTL      int    `yaml:"ttl"`
	Prefix   string `yaml:"prefix"`
}

// TTLDuration converts TTL to a time.Duration.
func (c RedisConfig) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Millisecond
}

// DatabaseConfig holds the DB_* settings.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns" split_words:"true"`
	MaxIdleConns    int           `yaml:"max_idle_conns" split_words:"true"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" split_words:"true"`
}

// TelemetryConfig holds the OTEL_* settings.
type TelemetryConfig struct {
	ServiceName          string  `yaml:"service_name" split_words:"true"`
	TracesExporter       string  `yaml:"traces_exporter" split_words:"true"`
	MetricsExporter      string  `yaml:"metrics_exporter" split_words:"true"`
	ExporterOtlpEndpoint string  `yaml:"exporter_otlp_endpoint" split_words:"true"`
	ExporterOtlpInsecure bool    `yaml:"exporter_otlp_insecure" split_words:"true"`
	SampleRatio          float64 `yaml:"sample_ratio" split_words:"true"`
}

// SecretsConfig selects where secrets are read from.
type SecretsConfig struct {
	Provider string `yaml:"provider"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile        string
	Port              *string
	RateLimitRPS      *float64
	RateLimitBurst    *int
	GraphQLPlayground *bool
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > Environment variables > YAML config > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Load from YAML file if specified
	if overrides != nil && overrides.ConfigFile != "" {
		if err := loadFromFile(overrides.ConfigFile, &cfg); err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
	}

	// Apply environment variables (override YAML)
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimit: RateLimitConfig{
			RPS:   defaultRateLimitRPS,
			Burst: defaultRateLimitBurst,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		GraphQL: GraphQLConfig{
			SchemaFile: DefaultSchemaFile,
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
			TTL:  DefaultRedisTTL,
		},
		DB: DatabaseConfig{
			Driver:          DriverPostgres,
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Otel: TelemetryConfig{
			ServiceName:     DefaultServiceName,
			TracesExporter:  ExporterOTLP,
			MetricsExporter: ExporterPrometheus,
			SampleRatio:     1.0,
		},
		Secrets: SecretsConfig{
			Provider: SecretsEnv,
		},
	}
}

// loadFromFile decodes a YAML file over cfg; keys absent from the file keep their current value.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse YAML: %w", err)
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimit.RPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimit.Burst = *overrides.RateLimitBurst
	}

	if overrides.GraphQLPlayground != nil {
		cfg.GraphQL.Playground = *overrides.GraphQLPlayground
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if cfg.RateLimit.RPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimit.Burst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.Redis.TTL < 0 {
		return fmt.Errorf("REDIS_TTL must be >= 0")
	}
	if cfg.Redis.Host != "" && (cfg.Redis.Port < 1 || cfg.Redis.Port > 65535) {
		return fmt.Errorf("REDIS_PORT must be between 1 and 65535, got %d", cfg.Redis.Port)
	}
	if !slices.Contains([]string{DriverPostgres, DriverMemory}, cfg.DB.Driver) {
		return fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}
	if !slices.Contains([]string{ExporterOTLP, ExporterStdout, ExporterNone}, cfg.Otel.TracesExporter) {
		return fmt.Errorf("unsupported OTEL_TRACES_EXPORTER %q", cfg.Otel.TracesExporter)
	}
	if !slices.Contains([]string{ExporterPrometheus, ExporterNone}, cfg.Otel.MetricsExporter) {
		return fmt.Errorf("unsupported OTEL_METRICS_EXPORTER %q", cfg.Otel.MetricsExporter)
	}
	if cfg.Otel.SampleRatio < 0 || cfg.Otel.SampleRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATIO must be within [0, 1]")
	}
	if !slices.Contains([]string{SecretsEnv, SecretsAWS}, cfg.Secrets.Provider) {
		return fmt.Errorf("unsupported SECRETS_PROVIDER %q", cfg.Secrets.Provider)
	}
	return nil
}
