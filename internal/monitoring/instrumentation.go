package monitoring

import (
	"strings"
	"time"
)

// Cache operation results.
const (
	CacheHit     = "hit"
	CacheMiss    = "miss"
	CacheSuccess = "success"
	CacheFailure = "failure"
	CacheSkipped = "disabled"
)

// ObserveAPILatency captures the HTTP request latency for the supplied route.
func ObserveAPILatency(method, path, status string, duration time.Duration) {
	module := ensureModule()
	if module == nil {
		return
	}
	if duration < 0 {
		duration = 0
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = "UNKNOWN"
	}
	path = sanitizePath(path)
	if path == "" {
		path = "unknown"
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = "unknown"
	}
	module.metrics.apiLatency.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordCacheOperation counts a cache call and its round trip time. message is kept as the
// last failure detail when result is CacheFailure.
func RecordCacheOperation(operation, result, message string, duration time.Duration) {
	module := ensureModule()
	if module == nil {
		return
	}
	op := normalizeLabel(operation)
	res := normalizeLabel(result)
	module.metrics.cacheOperations.WithLabelValues(op, res).Inc()
	if res != CacheSkipped {
		observeDuration(module.metrics.cacheLatency.WithLabelValues(op), duration)
	}
	module.stats.recordCache(op, res)
	if res == CacheFailure {
		module.stats.recordCacheFailure(FailureRecord{
			Operation: op,
			Message:   strings.TrimSpace(message),
			Occurred:  time.Now(),
		})
	}
}

// SetCatalogTotals publishes the current book and review counts.
func SetCatalogTotals(books, reviews int64) {
	module := ensureModule()
	if module == nil {
		return
	}
	if books < 0 {
		books = 0
	}
	if reviews < 0 {
		reviews = 0
	}
	module.metrics.catalogBooks.Set(float64(books))
	module.metrics.catalogReviews.Set(float64(reviews))
	module.stats.recordCatalog(books, reviews)
}

// RecordMaintenanceRun records the completion of a maintenance job.
func RecordMaintenanceRun(job, result, message string, duration time.Duration) {
	module := ensureModule()
	if module == nil {
		return
	}
	jobID := normalizeLabel(job)
	result = normalizeLabel(result)
	module.metrics.maintenanceRuns.WithLabelValues(jobID, result).Inc()
	observeDuration(module.metrics.maintenanceDuration.WithLabelValues(jobID), duration)
	if result == "success" {
		module.metrics.maintenanceLastRun.WithLabelValues(jobID).Set(float64(time.Now().Unix()))
	}
	stats := module.stats.maintenanceEntry(jobID)
	stats.record(result, strings.TrimSpace(message), duration)
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return value
}

func sanitizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if path == "/" {
		return "root"
	}
	path = strings.Trim(path, "/")
	return strings.ReplaceAll(path, " ", "_")
}
