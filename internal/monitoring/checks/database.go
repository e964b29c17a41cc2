package checks

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/bookreview/internal/monitoring"
)

const defaultDatabaseTimeout = 2 * time.Second

// Database pings the catalogue store. Books and reviews cannot be served without it, so the
// check is critical.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.CheckResult {
		if db == nil {
			return down("database not configured")
		}

		checkCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultDatabaseTimeout))
		defer cancel()

		var one int
		if err := db.WithContext(checkCtx).Raw("SELECT 1").Scan(&one).Error; err != nil {
			return down(err.Error())
		}
		return monitoring.CheckResult{Status: monitoring.StatusUp}
	})
}

func down(details string) monitoring.CheckResult {
	return monitoring.CheckResult{Status: monitoring.StatusDown, Details: details}
}

func chooseTimeout(provided, fallback time.Duration) time.Duration {
	if provided <= 0 {
		return fallback
	}
	return provided
}
