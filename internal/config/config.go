package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultStepGoal          = 10000
	DefaultHeartPointsGoal   = 21
	DefaultGeocodeTimeout    = 3 * time.Second
	DefaultGeocodeBaseURL    = "https://nominatim.openstreetmap.org"
	DefaultGeocodeUserAgent  = "fitness_tracker_dashboard"
	defaultViewCacheSizeMB   = 64
	defaultViewCacheExpire   = 10 * 60
	defaultReloadLimitPerMin = 5
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

	// input file
	DataCsvPath  string `toml:"data_csv_path"`
	CsvDelimiter string `toml:"csv_delimiter"`

	// geocoding
	GeocodingEnabled     bool   `toml:"geocoding_enabled"`
	GeocodeBaseURL       string `toml:"geocode_base_url"`
	GeocodeUserAgent     string `toml:"geocode_user_agent"`
	GeocodeTimeoutMs     int    `toml:"geocode_timeout_ms"`
	RedisCacheEnabled    bool   `toml:"redis_cache_enabled"`
	RedisHost            string `toml:"redis_host"`
	RedisPort            string `toml:"redis_port"`
	GeocodeRedisTTLHours int    `toml:"geocode_redis_ttl_hours"`

	// goals
	StepGoal        float64 `toml:"step_goal"`
	HeartPointsGoal float64 `toml:"heart_points_goal"`

	// views
	ViewCacheSizeMB       int      `toml:"view_cache_size_mb"`
	ViewCacheExpireSec    int      `toml:"view_cache_expire_sec"`
	ReloadRateLimitPerMin int      `toml:"reload_rate_limit_per_min"`
	CorsAllowedOrigins    []string `toml:"cors_allowed_origins"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the config section for env,
// with defaults applied for everything left unset.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] not found in %s", env, path)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Default returns a development config usable without a config file (CLI, tests).
func Default() *Config {
	cfg := &Config{
		Environment:      "development",
		Host:             "localhost",
		Port:             8080,
		LogLevel:         "info",
		GeocodingEnabled: true,
	}
	cfg.ApplyDefaults()
	return cfg
}

func (c *Config) ApplyDefaults() {
	if c.CsvDelimiter == "" {
		c.CsvDelimiter = ","
	}
	if c.GeocodeBaseURL == "" {
		c.GeocodeBaseURL = DefaultGeocodeBaseURL
	}
	if c.GeocodeUserAgent == "" {
		c.GeocodeUserAgent = DefaultGeocodeUserAgent
	}
	if c.GeocodeTimeoutMs <= 0 {
		c.GeocodeTimeoutMs = int(DefaultGeocodeTimeout / time.Millisecond)
	}
	if c.StepGoal <= 0 {
		c.StepGoal = DefaultStepGoal
	}
	if c.HeartPointsGoal <= 0 {
		c.HeartPointsGoal = DefaultHeartPointsGoal
	}
	if c.ViewCacheSizeMB <= 0 {
		c.ViewCacheSizeMB = defaultViewCacheSizeMB
	}
	if c.ViewCacheExpireSec <= 0 {
		c.ViewCacheExpireSec = defaultViewCacheExpire
	}
	if c.ReloadRateLimitPerMin <= 0 {
		c.ReloadRateLimitPerMin = defaultReloadLimitPerMin
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "9091"
	}
}

func (c *Config) Validate() error {
	if len([]rune(c.CsvDelimiter)) != 1 {
		return fmt.Errorf("csv delimiter must be a single character, got [%s]", c.CsvDelimiter)
	}
	if c.Port <= 0 {
		return errors.New("port not set")
	}
	return nil
}

func (c *Config) Delimiter() rune {
	return []rune(c.CsvDelimiter)[0]
}

func (c *Config) GeocodeTimeout() time.Duration {
	return time.Duration(c.GeocodeTimeoutMs) * time.Millisecond
}

func (c *Config) GeocodeRedisTTL() time.Duration {
	return time.Duration(c.GeocodeRedisTTLHours) * time.Hour
}

func (c *Config) ViewCacheExpire() time.Duration {
	return time.Duration(c.ViewCacheExpireSec) * time.Second
}
