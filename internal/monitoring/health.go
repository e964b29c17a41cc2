package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// CheckStatus encodes the outcome of a health check.
type CheckStatus string

const (
	StatusUp       CheckStatus = "up"
	StatusDegraded CheckStatus = "degraded"
	StatusDown     CheckStatus = "down"
)

func (s CheckStatus) severity() int {
	switch s {
	case StatusUp:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Worse returns whichever of s and other is the less healthy status.
func (s CheckStatus) Worse(other CheckStatus) CheckStatus {
	if other.severity() > s.severity() {
		return other
	}
	return s
}

// CheckResult captures a single dependency check outcome.
type CheckResult struct {
	Component string        `json:"component"`
	Status    CheckStatus   `json:"status"`
	Details   string        `json:"details,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// HealthReport is the evaluated state of the service.
type HealthReport struct {
	Success   bool          `json:"success"`
	Status    CheckStatus   `json:"status"`
	Message   string        `json:"message"`
	Checks    []CheckResult `json:"checks,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
}

// HTTPStatus is 200 while every component is up and 503 otherwise, degraded included.
func (r HealthReport) HTTPStatus() int {
	if r.Success {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

// Brief returns the report without per-component results.
func (r HealthReport) Brief() HealthReport {
	r.Checks = nil
	return r
}

// Check is a single dependency check. A failing optional check lowers the service to
// degraded; a failing critical check takes it down.
type Check struct {
	Name     string
	Critical bool
	Run      func(ctx context.Context) CheckResult
}

// NewCheck constructs a critical check. The service cannot answer requests without the component.
func NewCheck(name string, fn func(ctx context.Context) CheckResult) Check {
	return newCheck(name, true, fn)
}

// NewOptionalCheck constructs a check whose failure only degrades the service.
func NewOptionalCheck(name string, fn func(ctx context.Context) CheckResult) Check {
	return newCheck(name, false, fn)
}

func newCheck(name string, critical bool, fn func(ctx context.Context) CheckResult) Check {
	if fn == nil {
		fn = func(context.Context) CheckResult {
			return CheckResult{Status: StatusDown, Details: "check not implemented"}
		}
	}
	return Check{Name: name, Critical: critical, Run: fn}
}

// HealthManager evaluates the registered checks and phrases the result for the named service.
type HealthManager struct {
	service   string
	liveness  []Check
	readiness []Check
	now       func() time.Time
}

// NewHealthManager constructs an empty health manager reporting as service.
func NewHealthManager(service string) *HealthManager {
	if service == "" {
		service = "service"
	}
	return &HealthManager{service: service, now: time.Now}
}

// RegisterLiveness appends a liveness check.
func (m *HealthManager) RegisterLiveness(check Check) {
	if check.Name != "" {
		m.liveness = append(m.liveness, check)
	}
}

// RegisterReadiness appends a readiness check.
func (m *HealthManager) RegisterReadiness(check Check) {
	if check.Name != "" {
		m.readiness = append(m.readiness, check)
	}
}

// EvaluateLiveness runs the liveness checks.
func (m *HealthManager) EvaluateLiveness(ctx context.Context) HealthReport {
	return m.evaluate(ctx, m.liveness)
}

// EvaluateReadiness runs the readiness checks.
func (m *HealthManager) EvaluateReadiness(ctx context.Context) HealthReport {
	return m.evaluate(ctx, m.readiness)
}

func (m *HealthManager) evaluate(ctx context.Context, checks []Check) HealthReport {
	if ctx == nil {
		ctx = context.Background()
	}

	status := StatusUp
	results := make([]CheckResult, 0, len(checks))
	for _, check := range checks {
		result := runCheck(ctx, check)
		if !check.Critical && result.Status == StatusDown {
			result.Status = StatusDegraded
		}
		status = status.Worse(result.Status)
		results = append(results, result)
	}

	report := HealthReport{
		Success:   status == StatusUp,
		Status:    status,
		Message:   fmt.Sprintf("%s is running", m.service),
		Checks:    results,
		CheckedAt: m.now().UTC(),
	}
	if !report.Success {
		report.Message = fmt.Sprintf("%s is unavailable", m.service)
	}
	return report
}

func runCheck(ctx context.Context, check Check) (result CheckResult) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			result = CheckResult{Status: StatusDown, Details: fmt.Sprint(rec)}
		}
		if result.Status == "" {
			result.Status = StatusDown
		}
		if result.Duration == 0 {
			result.Duration = time.Since(start)
		}
		result.Component = check.Name
	}()

	return check.Run(ctx)
}
