package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/bookreview/internal/app"
	"github.com/charlesng35/bookreview/internal/database"
	"github.com/charlesng35/bookreview/internal/models"
)

func testConfig(t *testing.T) *app.Config {
	t.Helper()
	return &app.Config{
		Server: app.ServerConfig{Port: 8000, APIPrefix: "/api/v1"},
		Database: app.DatabaseConfig{
			Driver: "sqlite",
			DSN:    database.MemoryDSN("bootstrap-" + uuid.NewString()),
			Seed:   true,
		},
		Cache: app.CacheConfig{
			Enabled: true,
			Driver:  app.CacheDriverMemory,
			TTL:     time.Minute,
			Memory:  app.MemoryCacheConfig{Size: 64},
		},
		Catalog: app.CatalogConfig{MaxPublicationYear: 2024},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
		Maintenance: app.MaintenanceConfig{
			Enabled:        true,
			StatsSchedule:  "@every 1h",
			OrphanSchedule: "@daily",
		},
	}
}

func TestBootstrapRuntimeWithMemoryCache(t *testing.T) {
	cfg := testConfig(t)

	stack, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), zap.NewNop()) })

	require.True(t, stack.Cache.Enabled())
	require.Nil(t, stack.RateStore)

	var count int64
	require.NoError(t, stack.DB.Model(&models.Book{}).Count(&count).Error)
	require.Equal(t, int64(3), count)

	summary := stack.Monitoring.Summary()
	require.Equal(t, int64(3), summary.Catalog.Books)
	require.Equal(t, int64(7), summary.Catalog.Reviews)

	w := httptest.NewRecorder()
	stack.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestBootstrapFallsBackWhenRedisUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Driver = app.CacheDriverRedis
	cfg.Cache.Redis = app.RedisCacheConfig{Address: "127.0.0.1:1", Timeout: 200 * time.Millisecond}
	cfg.Maintenance.Enabled = false

	stack, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), zap.NewNop()) })

	require.False(t, stack.Cache.Enabled())
	require.Nil(t, stack.Scheduler)

	w := httptest.NewRecorder()
	stack.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/books", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestBootstrapRejectsBadDatabaseURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.URL = "oracle://db/books"

	_, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
}

func TestLoadApplicationConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 9191\n"), 0o600))

	cfg, err := loadApplicationConfig(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)

	_, err = loadApplicationConfig(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("BOOKREVIEW_TEST_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("BOOKREVIEW_TEST_VALUE") })

	require.NoError(t, loadEnvFile(path))
	require.Equal(t, "from-file", os.Getenv("BOOKREVIEW_TEST_VALUE"))

	require.NoError(t, loadEnvFile(filepath.Join(dir, "absent.env")))
	require.NoError(t, loadEnvFile(""))
}
