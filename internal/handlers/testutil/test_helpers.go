package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/bookreview/internal/api"
	"github.com/charlesng35/bookreview/internal/app"
	"github.com/charlesng35/bookreview/internal/cache"
	sharedtestutil "github.com/charlesng35/bookreview/internal/database/testutil"
	"github.com/charlesng35/bookreview/internal/handlers"
	"github.com/charlesng35/bookreview/internal/middleware"
	"github.com/charlesng35/bookreview/internal/monitoring"
	"github.com/charlesng35/bookreview/internal/monitoring/checks"
	"github.com/charlesng35/bookreview/internal/services"
	"github.com/charlesng35/bookreview/pkg/response"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database and cache for handler tests.
type Env struct {
	T          *testing.T
	DB         *gorm.DB
	Store      cache.Store
	Cache      *cache.Client
	Books      *services.BookService
	Reviews    *services.ReviewService
	Monitoring *monitoring.Module
	Config     *app.Config
	Router     *gin.Engine
}

// EnvOption customises NewEnv.
type EnvOption func(*envConfig)

type envConfig struct {
	seed    bool
	store   cache.Store
	noCache bool
	mutate  func(*app.Config)
}

// WithSeedData loads the sample catalogue.
func WithSeedData() EnvOption {
	return func(cfg *envConfig) { cfg.seed = true }
}

// WithStore replaces the in-memory cache store, e.g. with a failing fake.
func WithStore(store cache.Store) EnvOption {
	return func(cfg *envConfig) { cfg.store = store }
}

// WithoutCache runs the services with a disabled cache client.
func WithoutCache() EnvOption {
	return func(cfg *envConfig) { cfg.noCache = true }
}

// WithConfig adjusts the application configuration before the router is built.
func WithConfig(fn func(*app.Config)) EnvOption {
	return func(cfg *envConfig) { cfg.mutate = fn }
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	settings := envConfig{}
	for _, opt := range opts {
		opt(&settings)
	}

	dbOpts := []sharedtestutil.TestDBOption{sharedtestutil.WithAutoMigrate()}
	if settings.seed {
		dbOpts = append(dbOpts, sharedtestutil.WithSeedData())
	}
	db := sharedtestutil.MustOpenTestDB(t, dbOpts...)

	store := settings.store
	if store == nil && !settings.noCache {
		store = cache.NewMemoryStore(256)
	}
	var client *cache.Client
	if store != nil {
		client = cache.NewClient(store, cache.WithTimeout(time.Second))
	} else {
		client = cache.NewClient(nil)
	}

	cfg := &app.Config{
		Server: app.ServerConfig{Port: 8000, APIPrefix: "/api/v1"},
		Cache:  app.CacheConfig{Enabled: store != nil, Driver: app.CacheDriverMemory, TTL: cache.DefaultTTL},
		Catalog: app.CatalogConfig{
			MaxPublicationYear: 2024,
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}
	if settings.mutate != nil {
		settings.mutate(cfg)
	}

	books, err := services.NewBookService(db, client, services.WithMaxPublicationYear(cfg.Catalog.MaxPublicationYear))
	require.NoError(t, err)
	reviews, err := services.NewReviewService(db, client)
	require.NoError(t, err)

	module, err := monitoring.NewModule(monitoring.Options{
		ServiceName:             handlers.ServiceName,
		DisableGoCollector:      true,
		DisableProcessCollector: true,
	})
	require.NoError(t, err)
	monitoring.SetModule(module)
	module.Health().RegisterReadiness(checks.Database(db, time.Second))
	module.Health().RegisterReadiness(checks.Cache(store, store != nil, time.Second))

	router, err := api.NewRouter(api.Dependencies{
		Config:     cfg,
		DB:         db,
		Books:      books,
		Reviews:    reviews,
		Monitoring: module,
		RateStore:  middleware.NewMemoryRateStore(),
	})
	require.NoError(t, err)

	return &Env{
		T:          t,
		DB:         db,
		Store:      store,
		Cache:      client,
		Books:      books,
		Reviews:    reviews,
		Monitoring: module,
		Config:     cfg,
		Router:     router,
	}
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, JSON encoding body when present.
func (e *Env) Request(method, path string, body any) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	switch v := body.(type) {
	case nil:
		buf = bytes.NewBuffer(nil)
	case string:
		buf = bytes.NewBufferString(v)
	default:
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
