package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/bookreview/internal/app"
	"github.com/charlesng35/bookreview/internal/database/testutil"
	"github.com/charlesng35/bookreview/internal/services"
)

func newTestDependencies(t *testing.T, cfg *app.Config) Dependencies {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	books, err := services.NewBookService(db, nil)
	require.NoError(t, err)
	reviews, err := services.NewReviewService(db, nil)
	require.NoError(t, err)

	return Dependencies{Config: cfg, DB: db, Books: books, Reviews: reviews}
}

func TestNewRouterRequiresDependencies(t *testing.T) {
	_, err := NewRouter(Dependencies{})
	require.Error(t, err)

	_, err = NewRouter(Dependencies{Config: &app.Config{}})
	require.Error(t, err)
}

func TestRouterCustomPrefixWithoutMonitoring(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &app.Config{Server: app.ServerConfig{APIPrefix: "catalog/"}}
	router, err := NewRouter(newTestDependencies(t, cfg))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/catalog/books", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/books", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	// Health endpoints answer as disabled when no monitoring module is wired.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "disabled")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/catalog/monitoring/summary", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPathHelpers(t *testing.T) {
	require.Equal(t, "/api/v1", apiPrefix(""))
	require.Equal(t, "/api/v2", apiPrefix("/api/v2/"))
	require.Equal(t, "/metrics", metricsEndpoint(""))
	require.Equal(t, "/prom", metricsEndpoint("prom"))
}
