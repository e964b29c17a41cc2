package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/bookreview/internal/monitoring"
	"github.com/charlesng35/bookreview/pkg/logger"
)

// Job names reported to monitoring.
const (
	JobCatalogStats  = "catalog_stats"
	JobOrphanReviews = "orphan_reviews"
)

const (
	defaultStatsSpec  = "@every 1m"
	defaultOrphanSpec = "@daily"
	defaultJobTimeout = 30 * time.Second
)

// Counter reports the number of stored records.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// OrphanSweeper removes reviews whose book no longer exists.
type OrphanSweeper interface {
	Counter
	DeleteOrphans(ctx context.Context) (int64, error)
}

// Scheduler runs the periodic catalogue jobs: publishing book and review totals and sweeping
// orphaned reviews.
type Scheduler struct {
	books   Counter
	reviews OrphanSweeper
	cron    *cron.Cron
	log     *zap.Logger
	timeout time.Duration

	statsSchedule  string
	orphanSchedule string
}

// Option customises the Scheduler.
type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithStatsSchedule overrides the cron specification for the catalogue statistics job.
func WithStatsSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.statsSchedule = spec
		}
	}
}

// WithOrphanSchedule overrides the cron specification for the orphan review sweep.
func WithOrphanSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.orphanSchedule = spec
		}
	}
}

// WithJobTimeout bounds a single job run.
func WithJobTimeout(timeout time.Duration) Option {
	return func(s *Scheduler) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// NewScheduler constructs a Scheduler. A nil books or reviews dependency disables the jobs
// that need it.
func NewScheduler(books Counter, reviews OrphanSweeper, opts ...Option) *Scheduler {
	s := &Scheduler{
		books:          books,
		reviews:        reviews,
		timeout:        defaultJobTimeout,
		statsSchedule:  defaultStatsSpec,
		orphanSchedule: defaultOrphanSpec,
		log:            logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return s
}

// Start registers the jobs with the cron scheduler and launches it.
func (s *Scheduler) Start() error {
	if s.books == nil && s.reviews == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.statsSchedule, func() {
		s.run(JobCatalogStats, s.CatalogStats)
	}); err != nil {
		return fmt.Errorf("maintenance: schedule %s: %w", JobCatalogStats, err)
	}

	if s.reviews != nil {
		if _, err := s.cron.AddFunc(s.orphanSchedule, func() {
			s.run(JobOrphanReviews, s.SweepOrphans)
		}); err != nil {
			return fmt.Errorf("maintenance: schedule %s: %w", JobOrphanReviews, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes every job sequentially. Used at start-up and in tests.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	errs = multierr.Append(errs, s.runWith(ctx, JobCatalogStats, s.CatalogStats))
	if s.reviews != nil {
		errs = multierr.Append(errs, s.runWith(ctx, JobOrphanReviews, s.SweepOrphans))
	}
	return errs
}

// CatalogStats publishes the current book and review totals.
func (s *Scheduler) CatalogStats(ctx context.Context) error {
	var books, reviews int64
	var errs error

	if s.books != nil {
		count, err := s.books.Count(ctx)
		errs = multierr.Append(errs, err)
		books = count
	}
	if s.reviews != nil {
		count, err := s.reviews.Count(ctx)
		errs = multierr.Append(errs, err)
		reviews = count
	}
	if errs != nil {
		return errs
	}

	monitoring.SetCatalogTotals(books, reviews)
	return nil
}

// SweepOrphans removes reviews that reference missing books.
func (s *Scheduler) SweepOrphans(ctx context.Context) error {
	if s.reviews == nil {
		return nil
	}
	removed, err := s.reviews.DeleteOrphans(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.log.Info("removed orphaned reviews", zap.Int64("count", removed))
	}
	return nil
}

func (s *Scheduler) run(job string, fn func(context.Context) error) {
	if err := s.runWith(context.Background(), job, fn); err != nil {
		s.log.Warn("maintenance job failed", zap.String("job", job), zap.Error(err))
	}
}

func (s *Scheduler) runWith(ctx context.Context, job string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	if err != nil {
		monitoring.RecordMaintenanceRun(job, "failure", err.Error(), duration)
		return fmt.Errorf("%s: %w", job, err)
	}
	monitoring.RecordMaintenanceRun(job, "success", "", duration)
	return nil
}
