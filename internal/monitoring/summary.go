package monitoring

import "time"

// Summary surfaces aggregated runtime statistics for operators.
type Summary struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Cache       CacheSummary       `json:"cache"`
	Catalog     CatalogSummary     `json:"catalog"`
	Maintenance MaintenanceSummary `json:"maintenance"`
}

// CacheSummary totals cache outcomes across every operation.
type CacheSummary struct {
	Hits        uint64                  `json:"hits"`
	Misses      uint64                  `json:"misses"`
	Failures    uint64                  `json:"failures"`
	Operations  []CacheOperationSummary `json:"operations"`
	LastFailure *FailureRecord          `json:"last_failure,omitempty"`
}

type CacheOperationSummary struct {
	Operation string `json:"operation"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Successes uint64 `json:"successes"`
	Failures  uint64 `json:"failures"`
	Skipped   uint64 `json:"skipped"`
}

type FailureRecord struct {
	Operation string    `json:"operation"`
	Message   string    `json:"message"`
	Occurred  time.Time `json:"occurred_at"`
}

type CatalogSummary struct {
	Books     int64     `json:"books"`
	Reviews   int64     `json:"reviews"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MaintenanceSummary struct {
	Jobs []MaintenanceJobSummary `json:"jobs"`
}

type MaintenanceJobSummary struct {
	Job                 string        `json:"job"`
	LastStatus          string        `json:"last_status"`
	LastRunAt           time.Time     `json:"last_run_at"`
	LastDuration        time.Duration `json:"last_duration"`
	LastError           string        `json:"last_error,omitempty"`
	ConsecutiveFailures uint64        `json:"consecutive_failures"`
	ConsecutiveSuccess  uint64        `json:"consecutive_success"`
	LastSuccessAt       time.Time     `json:"last_success_at"`
	TotalRuns           uint64        `json:"total_runs"`
}

// Snapshot returns a point-in-time summary from the current module when configured.
func Snapshot() Summary {
	if module := ensureModule(); module != nil && module.stats != nil {
		return module.stats.summary()
	}
	return Summary{GeneratedAt: time.Now()}
}

// Summary returns the module's own statistics.
func (m *Module) Summary() Summary {
	if m == nil || m.stats == nil {
		return Summary{GeneratedAt: time.Now()}
	}
	return m.stats.summary()
}
