package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type statStore struct {
	cacheOps        sync.Map     // string -> *cacheOpStats
	cacheLastFailed atomic.Value // *FailureRecord

	books          atomic.Int64
	reviews        atomic.Int64
	catalogUpdated atomic.Int64 // unix nano

	maintenance sync.Map // string -> *maintenanceStats
}

func newStatStore() *statStore {
	store := &statStore{}
	store.cacheLastFailed.Store((*FailureRecord)(nil))
	return store
}

func (s *statStore) summary() Summary {
	lastFailure, _ := s.cacheLastFailed.Load().(*FailureRecord)

	cacheSummary := CacheSummary{
		Operations:  s.cloneCacheOps(),
		LastFailure: lastFailure,
	}
	for _, op := range cacheSummary.Operations {
		cacheSummary.Hits += op.Hits
		cacheSummary.Misses += op.Misses
		cacheSummary.Failures += op.Failures
	}

	var updated time.Time
	if nanos := s.catalogUpdated.Load(); nanos > 0 {
		updated = time.Unix(0, nanos)
	}

	return Summary{
		GeneratedAt: time.Now(),
		Cache:       cacheSummary,
		Catalog: CatalogSummary{
			Books:     s.books.Load(),
			Reviews:   s.reviews.Load(),
			UpdatedAt: updated,
		},
		Maintenance: MaintenanceSummary{
			Jobs: s.cloneMaintenance(),
		},
	}
}

func (s *statStore) cloneCacheOps() []CacheOperationSummary {
	summaries := []CacheOperationSummary{}
	s.cacheOps.Range(func(key, value any) bool {
		stats := value.(*cacheOpStats)
		summaries = append(summaries, stats.snapshot(key.(string)))
		return true
	})
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Operation < summaries[j].Operation
	})
	return summaries
}

func (s *statStore) cloneMaintenance() []MaintenanceJobSummary {
	summaries := []MaintenanceJobSummary{}
	s.maintenance.Range(func(key, value any) bool {
		stats := value.(*maintenanceStats)
		summaries = append(summaries, stats.snapshot(key.(string)))
		return true
	})
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Job < summaries[j].Job
	})
	return summaries
}

func (s *statStore) recordCache(operation, result string) {
	entry := s.cacheEntry(operation)
	switch result {
	case CacheHit:
		entry.hits.Add(1)
	case CacheMiss:
		entry.misses.Add(1)
	case CacheFailure:
		entry.failures.Add(1)
	case CacheSkipped:
		entry.skipped.Add(1)
	default:
		entry.successes.Add(1)
	}
}

func (s *statStore) recordCacheFailure(record FailureRecord) {
	cloned := record
	s.cacheLastFailed.Store(&cloned)
}

func (s *statStore) recordCatalog(books, reviews int64) {
	s.books.Store(books)
	s.reviews.Store(reviews)
	s.catalogUpdated.Store(time.Now().UnixNano())
}

func (s *statStore) cacheEntry(operation string) *cacheOpStats {
	value, ok := s.cacheOps.Load(operation)
	if ok {
		return value.(*cacheOpStats)
	}
	actual, _ := s.cacheOps.LoadOrStore(operation, &cacheOpStats{})
	return actual.(*cacheOpStats)
}

func (s *statStore) maintenanceEntry(job string) *maintenanceStats {
	value, ok := s.maintenance.Load(job)
	if ok {
		return value.(*maintenanceStats)
	}
	actual, _ := s.maintenance.LoadOrStore(job, &maintenanceStats{})
	return actual.(*maintenanceStats)
}

type cacheOpStats struct {
	hits      atomic.Uint64
	misses    atomic.Uint64
	successes atomic.Uint64
	failures  atomic.Uint64
	skipped   atomic.Uint64
}

func (c *cacheOpStats) snapshot(operation string) CacheOperationSummary {
	return CacheOperationSummary{
		Operation: operation,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Successes: c.successes.Load(),
		Failures:  c.failures.Load(),
		Skipped:   c.skipped.Load(),
	}
}

type maintenanceStats struct {
	lastStatus           atomic.Value // string
	lastError            atomic.Value // string
	lastRun              atomic.Int64 // unix nano
	lastDuration         atomic.Int64 // nanoseconds
	consecutiveFailures  atomic.Uint64
	totalRuns            atomic.Uint64
	lastSuccessfulRun    atomic.Int64
	consecutiveSuccesses atomic.Uint64
}

func (m *maintenanceStats) snapshot(job string) MaintenanceJobSummary {
	status, _ := m.lastStatus.Load().(string)
	errMsg, _ := m.lastError.Load().(string)

	summary := MaintenanceJobSummary{
		Job:                 job,
		LastStatus:          status,
		LastDuration:        time.Duration(m.lastDuration.Load()),
		LastError:           errMsg,
		ConsecutiveFailures: m.consecutiveFailures.Load(),
		ConsecutiveSuccess:  m.consecutiveSuccesses.Load(),
		TotalRuns:           m.totalRuns.Load(),
	}
	if nanos := m.lastRun.Load(); nanos > 0 {
		summary.LastRunAt = time.Unix(0, nanos)
	}
	if nanos := m.lastSuccessfulRun.Load(); nanos > 0 {
		summary.LastSuccessAt = time.Unix(0, nanos)
	}
	return summary
}

func (m *maintenanceStats) record(result, message string, duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	now := time.Now()
	m.lastStatus.Store(result)
	m.lastError.Store(message)
	m.lastRun.Store(now.UnixNano())
	m.lastDuration.Store(int64(duration))
	m.totalRuns.Add(1)

	switch result {
	case "success":
		m.consecutiveFailures.Store(0)
		m.consecutiveSuccesses.Add(1)
		m.lastSuccessfulRun.Store(now.UnixNano())
	default:
		m.consecutiveFailures.Add(1)
		m.consecutiveSuccesses.Store(0)
	}
}
