package checks

import (
	"context"
	"time"

	"github.com/charlesng35/bookreview/internal/monitoring"
)

const defaultCacheTimeout = 2 * time.Second

// Pinger is the part of a cache store the check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Cache pings the response cache. The check is optional: reads fall through to the
// database while the cache is unreachable.
func Cache(store Pinger, enabled bool, timeout time.Duration) monitoring.Check {
	return monitoring.NewOptionalCheck("cache", func(ctx context.Context) monitoring.CheckResult {
		if !enabled {
			return monitoring.CheckResult{Status: monitoring.StatusUp, Details: "cache disabled"}
		}
		if store == nil {
			return down("cache unavailable")
		}

		checkCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultCacheTimeout))
		defer cancel()

		if err := store.Ping(checkCtx); err != nil {
			return down(err.Error())
		}
		return monitoring.CheckResult{Status: monitoring.StatusUp}
	})
}
