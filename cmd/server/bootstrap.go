package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/bookreview/internal/api"
	"github.com/charlesng35/bookreview/internal/app"
	"github.com/charlesng35/bookreview/internal/app/maintenance"
	"github.com/charlesng35/bookreview/internal/cache"
	"github.com/charlesng35/bookreview/internal/database"
	"github.com/charlesng35/bookreview/internal/handlers"
	"github.com/charlesng35/bookreview/internal/middleware"
	"github.com/charlesng35/bookreview/internal/monitoring"
	"github.com/charlesng35/bookreview/internal/monitoring/checks"
	"github.com/charlesng35/bookreview/internal/services"
	"github.com/charlesng35/bookreview/pkg/logger"
)

const (
	checkTimeout = 2 * time.Second
	// The orphan sweep runs daily; allow an hour of slack before reporting it stale.
	maintenanceMaxAge = 25 * time.Hour
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB         *gorm.DB
	Store      cache.Store
	Cache      *cache.Client
	Books      *services.BookService
	Reviews    *services.ReviewService
	Monitoring *monitoring.Module
	Scheduler  *maintenance.Scheduler
	RateStore  middleware.RateStore
	Router     *gin.Engine
}

// bootstrapRuntime initialises the database, cache, services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	stack.Store = initialiseCacheStore(ctx, cfg.Cache, log)
	stack.Cache = cache.NewClient(stack.Store, cfg.Cache.ClientOptions()...)

	stack.Books, err = services.NewBookService(stack.DB, stack.Cache,
		services.WithMaxPublicationYear(cfg.Catalog.MaxPublicationYear))
	if err != nil {
		return nil, fmt.Errorf("initialise book service: %w", err)
	}
	stack.Reviews, err = services.NewReviewService(stack.DB, stack.Cache)
	if err != nil {
		return nil, fmt.Errorf("initialise review service: %w", err)
	}

	stack.Monitoring, err = monitoring.NewModule(monitoring.Options{ServiceName: handlers.ServiceName})
	if err != nil {
		return nil, fmt.Errorf("initialise monitoring: %w", err)
	}
	monitoring.SetModule(stack.Monitoring)

	health := stack.Monitoring.Health()
	health.RegisterReadiness(checks.Database(stack.DB, checkTimeout))
	health.RegisterReadiness(checks.Cache(stack.Store, stack.Cache.Enabled(), checkTimeout))

	if cfg.Maintenance.Enabled {
		stack.Scheduler = maintenance.NewScheduler(stack.Books, stack.Reviews,
			maintenance.WithStatsSchedule(cfg.Maintenance.StatsSchedule),
			maintenance.WithOrphanSchedule(cfg.Maintenance.OrphanSchedule),
		)
		if err := stack.Scheduler.RunOnce(ctx); err != nil {
			log.Warn("initial maintenance run failed", zap.Error(err))
		}
		if err := stack.Scheduler.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
		health.RegisterReadiness(checks.Maintenance(maintenanceMaxAge))
	}

	if stack.Store != nil && cfg.Cache.DriverName() == app.CacheDriverRedis {
		stack.RateStore = middleware.NewCacheRateStore(stack.Store)
	}

	stack.Router, err = api.NewRouter(api.Dependencies{
		Config:     cfg,
		DB:         stack.DB,
		Books:      stack.Books,
		Reviews:    stack.Reviews,
		Monitoring: stack.Monitoring,
		RateStore:  stack.RateStore,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Scheduler != nil {
		select {
		case <-s.Scheduler.Stop().Done():
		case <-ctx.Done():
			log.Warn("maintenance jobs still running at shutdown")
		}
	}

	var errs error
	if s.Cache != nil {
		errs = multierr.Append(errs, s.Cache.Close())
	} else if s.Store != nil {
		errs = multierr.Append(errs, s.Store.Close())
	}
	errs = multierr.Append(errs, database.Close(s.DB))

	for _, err := range multierr.Errors(errs) {
		log.Warn("shutdown", zap.Error(err))
	}
}

func initialiseDatabase(cfg app.DatabaseConfig) (*gorm.DB, error) {
	dbCfg, err := cfg.ConnectionConfig()
	if err != nil {
		return nil, fmt.Errorf("database config: %w", err)
	}

	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	if cfg.Seed {
		seeded, err := database.SeedData(db)
		if err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("seed database: %w", err)
		}
		if seeded {
			log.Info("sample catalogue inserted")
		}
	}

	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))
	return db, nil
}

// initialiseCacheStore returns nil when caching is disabled or redis cannot be reached, in
// which case the services read straight from the database.
func initialiseCacheStore(ctx context.Context, cfg app.CacheConfig, log *zap.Logger) cache.Store {
	if !cfg.Enabled {
		log.Info("cache disabled")
		return nil
	}

	switch cfg.DriverName() {
	case app.CacheDriverMemory:
		log.Info("in-memory cache enabled", zap.Int("size", cfg.Memory.Size))
		return cache.NewMemoryStore(cfg.Memory.Size)
	default:
		client, err := cache.NewRedisClient(ctx, cfg.RedisClientConfig())
		if err != nil {
			log.Warn("redis unavailable; serving without cache", zap.Error(err))
			return nil
		}
		log.Info("redis connected", zap.String("addr", client.Addr()))
		return client
	}
}
