package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/bookreview/internal/app"
	"github.com/charlesng35/bookreview/internal/handlers"
	"github.com/charlesng35/bookreview/internal/middleware"
	"github.com/charlesng35/bookreview/internal/monitoring"
	"github.com/charlesng35/bookreview/internal/services"
)

// Dependencies bundles everything the HTTP layer needs.
type Dependencies struct {
	Config     *app.Config
	DB         *gorm.DB
	Books      *services.BookService
	Reviews    *services.ReviewService
	Monitoring *monitoring.Module
	// RateStore holds rate limit counters. Nil selects an in-memory store.
	RateStore middleware.RateStore
}

// NewRouter builds the Gin engine, wires middleware and registers the catalogue routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	if cfg == nil {
		return nil, errors.New("config must be provided")
	}
	if deps.Books == nil || deps.Reviews == nil {
		return nil, errors.New("book and review services must be provided")
	}

	debug := cfg.Server.Debug
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(debug))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	if limit := cfg.Server.RateLimit; limit.Enabled {
		r.Use(middleware.RateLimit(deps.RateStore, limit.Requests, limit.Window))
	}

	prefix := apiPrefix(cfg.Server.APIPrefix)
	metricsPath := ""
	if cfg.Monitoring.Prometheus.Enabled && deps.Monitoring != nil {
		metricsPath = metricsEndpoint(cfg.Monitoring.Prometheus.Endpoint)
		r.GET(metricsPath, gin.WrapH(deps.Monitoring.Handler()))
	}

	r.GET("/", handlers.ServiceInfo(prefix, metricsPath))
	registerHealthRoutes(r, cfg, deps.Monitoring)

	api := r.Group(prefix)

	bookHandler, err := handlers.NewBookHandler(deps.Books, deps.Reviews, debug)
	if err != nil {
		return nil, err
	}
	reviewHandler, err := handlers.NewReviewHandler(deps.Reviews, debug)
	if err != nil {
		return nil, err
	}
	registerBookRoutes(api, bookHandler, reviewHandler)
	registerReviewRoutes(api, reviewHandler)

	registerMonitoringRoutes(api, handlers.NewMonitoringHandler(deps.Monitoring, metricsPath))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

func apiPrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return "/api/v1"
	}
	return "/" + prefix
}

func metricsEndpoint(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/metrics"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
