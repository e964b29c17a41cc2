package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/bookreview/internal/database/testutil"
	"github.com/charlesng35/bookreview/internal/models"
	"github.com/charlesng35/bookreview/internal/monitoring"
	"github.com/charlesng35/bookreview/internal/services"
)

func setupMonitoring(t *testing.T) *monitoring.Module {
	t.Helper()
	mod, err := monitoring.NewModule(monitoring.Options{})
	require.NoError(t, err)
	monitoring.SetModule(mod)
	return mod
}

func jobSummary(t *testing.T, mod *monitoring.Module, job string) monitoring.MaintenanceJobSummary {
	t.Helper()
	for _, entry := range mod.Summary().Maintenance.Jobs {
		if entry.Job == job {
			return entry
		}
	}
	t.Fatalf("job %s not recorded", job)
	return monitoring.MaintenanceJobSummary{}
}

func TestRunOncePublishesCatalogTotals(t *testing.T) {
	mod := setupMonitoring(t)
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	books, err := services.NewBookService(db, nil)
	require.NoError(t, err)
	reviews, err := services.NewReviewService(db, nil)
	require.NoError(t, err)

	scheduler := NewScheduler(books, reviews)
	require.NoError(t, scheduler.RunOnce(context.Background()))

	summary := mod.Summary()
	require.Equal(t, int64(3), summary.Catalog.Books)
	require.Equal(t, int64(7), summary.Catalog.Reviews)

	stats := jobSummary(t, mod, JobCatalogStats)
	require.Equal(t, "success", stats.LastStatus)
	require.Equal(t, uint64(1), stats.TotalRuns)
	require.Equal(t, "success", jobSummary(t, mod, JobOrphanReviews).LastStatus)
}

func TestSweepOrphansRemovesDanglingReviews(t *testing.T) {
	setupMonitoring(t)
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = OFF").Error)

	book := models.Book{Title: "Kept", Author: "Author"}
	require.NoError(t, db.Create(&book).Error)
	require.NoError(t, db.Create(&models.Review{BookID: book.ID, ReviewerName: "a", Rating: 4}).Error)
	require.NoError(t, db.Create(&models.Review{BookID: book.ID + 100, ReviewerName: "b", Rating: 2}).Error)

	reviews, err := services.NewReviewService(db, nil)
	require.NoError(t, err)

	scheduler := NewScheduler(nil, reviews)
	require.NoError(t, scheduler.SweepOrphans(context.Background()))

	var remaining int64
	require.NoError(t, db.Model(&models.Review{}).Count(&remaining).Error)
	require.Equal(t, int64(1), remaining)
}

type stubCounter struct {
	count int64
	err   error
}

func (s stubCounter) Count(context.Context) (int64, error) { return s.count, s.err }

type stubSweeper struct {
	stubCounter
	sweepErr error
	swept    int
}

func (s *stubSweeper) DeleteOrphans(context.Context) (int64, error) {
	s.swept++
	return 0, s.sweepErr
}

func TestRunOnceAggregatesErrors(t *testing.T) {
	mod := setupMonitoring(t)

	sweeper := &stubSweeper{stubCounter: stubCounter{count: 2}, sweepErr: errors.New("database is locked")}
	scheduler := NewScheduler(stubCounter{err: errors.New("no such table: books")}, sweeper)

	err := scheduler.RunOnce(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no such table: books")
	require.Contains(t, err.Error(), "database is locked")
	require.Equal(t, 1, sweeper.swept)

	orphan := jobSummary(t, mod, JobOrphanReviews)
	require.Equal(t, "failure", orphan.LastStatus)
	require.Equal(t, uint64(1), orphan.ConsecutiveFailures)
	require.Equal(t, "database is locked", orphan.LastError)
}

func TestStartRegistersJobs(t *testing.T) {
	setupMonitoring(t)

	c := cron.New(cron.WithLogger(cron.DiscardLogger))
	scheduler := NewScheduler(stubCounter{}, &stubSweeper{}, WithCron(c), WithStatsSchedule("@every 1h"), WithJobTimeout(time.Second))
	require.NoError(t, scheduler.Start())
	t.Cleanup(func() { <-scheduler.Stop().Done() })

	require.Len(t, c.Entries(), 2)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	scheduler := NewScheduler(stubCounter{}, nil, WithStatsSchedule("every so often"))
	require.Error(t, scheduler.Start())
}

func TestStartWithoutDependencies(t *testing.T) {
	c := cron.New(cron.WithLogger(cron.DiscardLogger))
	scheduler := NewScheduler(nil, nil, WithCron(c))
	require.NoError(t, scheduler.Start())
	require.Empty(t, c.Entries())
}
