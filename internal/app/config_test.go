package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/bookreview/internal/cache"
	"github.com/charlesng35/bookreview/internal/database"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "/api/v1", cfg.Server.APIPrefix)
	require.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	require.False(t, cfg.Server.Debug)
	require.False(t, cfg.Server.RateLimit.Enabled)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.True(t, cfg.Cache.Enabled)
	require.Equal(t, CacheDriverRedis, cfg.Cache.DriverName())
	require.Equal(t, 300*time.Second, cfg.Cache.TTL)
	require.Equal(t, "redis://localhost:6379", cfg.Cache.Redis.URL)
	require.Equal(t, 2*time.Second, cfg.Cache.Redis.Timeout)
	require.Equal(t, 2024, cfg.Catalog.MaxPublicationYear)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.Equal(t, "@daily", cfg.Maintenance.OrphanSchedule)
}

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "/api/v2", cfg.Server.APIPrefix)
	require.Equal(t, 20*time.Second, cfg.Server.ReadTimeout)
	require.True(t, cfg.Server.RateLimit.Enabled)
	require.Equal(t, 50, cfg.Server.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.Server.RateLimit.Window)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.True(t, cfg.Database.Seed)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5432, cfg.Database.Postgres.Port)

	require.Equal(t, CacheDriverMemory, cfg.Cache.DriverName())
	require.Equal(t, 120*time.Second, cfg.Cache.TTL)
	require.Equal(t, 256, cfg.Cache.Memory.Size)
	require.Equal(t, 2030, cfg.Catalog.MaxPublicationYear)
	require.Equal(t, "@every 30s", cfg.Maintenance.StatsSchedule)
}

func TestLoadConfigCompatibilityEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/books")
	t.Setenv("REDIS_URL", "redis://cache:6380/2")
	t.Setenv("DEBUG", "true")
	t.Setenv("PORT", "9000")
	t.Setenv("BOOKREVIEW_CACHE_TTL", "45s")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "postgres://u:p@db:5432/books", cfg.Database.URL)
	require.Equal(t, "redis://cache:6380/2", cfg.Cache.Redis.URL)
	require.True(t, cfg.Server.Debug)
	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, 45*time.Second, cfg.Cache.TTL)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Server: ServerConfig{Port: 8000}}
	require.NoError(t, cfg.Validate())

	cfg.Cache.Driver = "memcached"
	require.Error(t, cfg.Validate())

	cfg.Cache.Driver = "memory"
	cfg.Server.RateLimit = RateLimitConfig{Enabled: true}
	require.Error(t, cfg.Validate())

	cfg.Server.RateLimit = RateLimitConfig{}
	cfg.Server.Port = 0
	require.Error(t, cfg.Validate())
}

func TestCacheConfigAdapters(t *testing.T) {
	cfg := CacheConfig{
		TTL: time.Minute,
		Redis: RedisCacheConfig{
			URL:      " redis://localhost:6379/1 ",
			Address:  "127.0.0.1:6379",
			Username: " user ",
			Password: "pass",
			DB:       3,
			TLS:      true,
			Timeout:  time.Second,
		},
	}

	require.Equal(t, cache.RedisConfig{
		URL:      "redis://localhost:6379/1",
		Address:  "127.0.0.1:6379",
		Username: "user",
		Password: "pass",
		DB:       3,
		TLS:      true,
		Timeout:  time.Second,
	}, cfg.RedisClientConfig())

	client := cache.NewClient(cache.NewMemoryStore(8), cfg.ClientOptions()...)
	require.Equal(t, time.Minute, client.TTL())
}

func TestDatabaseConnectionConfig(t *testing.T) {
	fromURL, err := DatabaseConfig{URL: "mysql://u:p@db:3306/books", Driver: "sqlite"}.ConnectionConfig()
	require.NoError(t, err)
	require.Equal(t, "mysql", fromURL.Driver)

	pg, err := DatabaseConfig{
		Driver:   "postgres",
		Postgres: DBAuthConfig{Host: "db", Port: 5433, Database: "books", Username: "u", Password: "p"},
	}.ConnectionConfig()
	require.NoError(t, err)
	require.Equal(t, database.Config{Driver: "postgres", Host: "db", Port: 5433, Name: "books", User: "u", Password: "p"}, pg)

	lite, err := DatabaseConfig{Driver: "sqlite", Path: "./data/test.sqlite"}.ConnectionConfig()
	require.NoError(t, err)
	require.Equal(t, "./data/test.sqlite", lite.Path)
}
