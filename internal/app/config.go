package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the book review service.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port         int             `mapstructure:"port"`
	LogLevel     string          `mapstructure:"log_level"`
	Debug        bool            `mapstructure:"debug"`
	APIPrefix    string          `mapstructure:"api_prefix"`
	ReadTimeout  time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout time.Duration   `mapstructure:"write_timeout"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig controls the fixed-window request limiter.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// DatabaseConfig describes connection options for the supported databases.
// URL, when set, overrides the driver specific settings.
type DatabaseConfig struct {
	URL      string       `mapstructure:"url"`
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Seed     bool         `mapstructure:"seed"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CacheConfig describes the read-through cache.
type CacheConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	Driver  string            `mapstructure:"driver"`
	TTL     time.Duration     `mapstructure:"ttl"`
	Memory  MemoryCacheConfig `mapstructure:"memory"`
	Redis   RedisCacheConfig  `mapstructure:"redis"`
}

// MemoryCacheConfig sizes the in-process cache.
type MemoryCacheConfig struct {
	Size int `mapstructure:"size"`
}

// RedisCacheConfig holds Redis connection options. URL takes precedence over Address.
type RedisCacheConfig struct {
	URL      string        `mapstructure:"url"`
	Address  string        `mapstructure:"address"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TLS      bool          `mapstructure:"tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// CatalogConfig holds domain validation limits.
type CatalogConfig struct {
	MaxPublicationYear int `mapstructure:"max_publication_year"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// MaintenanceConfig schedules background catalogue jobs.
type MaintenanceConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	StatsSchedule  string `mapstructure:"stats_schedule"`
	OrphanSchedule string `mapstructure:"orphan_schedule"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("BOOKREVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	switch strings.ToLower(strings.TrimSpace(c.Cache.Driver)) {
	case "", "redis", "memory":
	default:
		return fmt.Errorf("config: unsupported cache.driver %q", c.Cache.Driver)
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.Requests <= 0 || c.Server.RateLimit.Window <= 0) {
		return errors.New("config: rate_limit requires positive requests and window")
	}
	return nil
}

// bindLegacyEnv maps the unprefixed variables used by container deployments.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"database.url":    "DATABASE_URL",
		"cache.redis.url": "REDIS_URL",
		"server.debug":    "DEBUG",
		"server.port":     "PORT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "BOOKREVIEW_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return fmt.Errorf("config: bind %s: %w", env, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.debug", false)
	v.SetDefault("server.api_prefix", "/api/v1")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.rate_limit.enabled", false)
	v.SetDefault("server.rate_limit.requests", 100)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("database.url", "")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/bookreview.sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.seed", false)
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.mysql.port", 3306)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.driver", "redis")
	v.SetDefault("cache.ttl", "300s")
	v.SetDefault("cache.memory.size", 1024)
	v.SetDefault("cache.redis.url", "redis://localhost:6379")
	v.SetDefault("cache.redis.address", "")
	v.SetDefault("cache.redis.username", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.tls", false)
	v.SetDefault("cache.redis.timeout", "2s")

	v.SetDefault("catalog.max_publication_year", 2024)

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.stats_schedule", "@every 1m")
	v.SetDefault("maintenance.orphan_schedule", "@daily")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
