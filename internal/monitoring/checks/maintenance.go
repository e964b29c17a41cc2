package checks

import (
	"context"
	"strings"
	"time"

	"github.com/charlesng35/bookreview/internal/monitoring"
)

const defaultMaintenanceMaxAge = 6 * time.Hour

// Maintenance fails when a catalogue job's last run failed or is older than maxAge. A zero
// maxAge falls back to six hours. The check is optional.
func Maintenance(maxAge time.Duration) monitoring.Check {
	if maxAge <= 0 {
		maxAge = defaultMaintenanceMaxAge
	}

	return monitoring.NewOptionalCheck("maintenance", func(ctx context.Context) monitoring.CheckResult {
		start := time.Now()
		summary := monitoring.Snapshot()
		now := time.Now()

		if len(summary.Maintenance.Jobs) == 0 {
			return monitoring.CheckResult{
				Status:   monitoring.StatusUp,
				Details:  "no maintenance jobs registered",
				Duration: time.Since(start),
			}
		}

		status := monitoring.StatusUp
		var failures []string

		for _, job := range summary.Maintenance.Jobs {
			if job.TotalRuns == 0 {
				failures = append(failures, job.Job+": pending first run")
				continue
			}

			if job.ConsecutiveFailures > 0 {
				status = monitoring.StatusDown
				failures = append(failures, job.Job+": "+job.LastError)
			}

			if maxAge > 0 && !job.LastRunAt.IsZero() && now.Sub(job.LastRunAt) > maxAge {
				status = monitoring.StatusDown
				failures = append(failures, job.Job+": stale run "+job.LastRunAt.UTC().Format(time.RFC3339))
			}
		}

		details := strings.Join(failures, "; ")

		return monitoring.CheckResult{
			Status:   status,
			Details:  details,
			Duration: time.Since(start),
		}
	})
}
