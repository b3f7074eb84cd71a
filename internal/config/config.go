package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	RunMigrations  bool   `toml:"run_migrations"`

	// intervals.icu
	IntervalsBaseURL        string `toml:"intervals_base_url"`
	IntervalsRequestTimeout string `toml:"intervals_request_timeout"`

	// sync
	SyncLeaseTTL         string `toml:"sync_lease_ttl"`
	WellnessTrailingDays int    `toml:"wellness_trailing_days"`
	Timezone             string `toml:"timezone"`

	// rate limiting, requests per minute per client and method
	RateLimitGetPerMin  int `toml:"rate_limit_get_per_min"`
	RateLimitPostPerMin int `toml:"rate_limit_post_per_min"`

	// same-origin browser requests skip the bearer token check
	AllowedOrigins []string `toml:"allowed_origins"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the section for env, with defaults applied.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return Parse(env, t)
}

// Decode is Load for an in-memory TOML document.
func Decode(env, data string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(data, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return Parse(env, t)
}

func Parse(env string, t Toml) (*Config, error) {
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg.Environment == "" {
		cfg.Environment = normalizeEnv(env)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func normalizeEnv(env string) string {
	switch strings.ToLower(env) {
	case "dev", "development":
		return "development"
	default:
		return "production"
	}
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.PrometheusMetricsHost == "" {
		c.PrometheusMetricsHost = "localhost"
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "2112"
	}
	if c.IntervalsBaseURL == "" {
		c.IntervalsBaseURL = "https://intervals.icu/api/v1"
	}
	if c.IntervalsRequestTimeout == "" {
		c.IntervalsRequestTimeout = "30s"
	}
	if c.SyncLeaseTTL == "" {
		c.SyncLeaseTTL = "2m"
	}
	if c.WellnessTrailingDays == 0 {
		c.WellnessTrailingDays = 365
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.RateLimitGetPerMin == 0 {
		c.RateLimitGetPerMin = 60
	}
	if c.RateLimitPostPerMin == 0 {
		c.RateLimitPostPerMin = 10
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.IntervalsRequestTimeout); err != nil {
		return fmt.Errorf("invalid intervals_request_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.SyncLeaseTTL); err != nil {
		return fmt.Errorf("invalid sync_lease_ttl: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	if c.WellnessTrailingDays < 0 {
		return fmt.Errorf("wellness_trailing_days must not be negative, got %d", c.WellnessTrailingDays)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IntervalsTimeout() time.Duration {
	d, _ := time.ParseDuration(c.IntervalsRequestTimeout)
	return d
}

func (c *Config) LeaseTTL() time.Duration {
	d, _ := time.ParseDuration(c.SyncLeaseTTL)
	return d
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
