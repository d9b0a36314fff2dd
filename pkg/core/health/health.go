// ============================================================================
// gridwerk - Spreadsheet Command Service
// ============================================================================
//
// Package:     health
// Description: Health check registry for the sheet server
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// rank orders statuses from best to worst
func (s Status) rank() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// CheckResult is the outcome of one check
type CheckResult struct {
	Name      string                 `json:"name"`
	Status    Status                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Duration  time.Duration          `json:"duration"`
	Timestamp time.Time              `json:"timestamp"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Checker is a single health check
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

type funcChecker struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

// NewChecker creates a named checker from a function
func NewChecker(name string, fn func(ctx context.Context) CheckResult) Checker {
	return funcChecker{name: name, fn: fn}
}

func (c funcChecker) Name() string                          { return c.name }
func (c funcChecker) Check(ctx context.Context) CheckResult { return c.fn(ctx) }

// Registry runs the registered checks. Checks keep their registration
// order in the report; registering a name again replaces the check.
type Registry struct {
	mu       sync.RWMutex
	checkers []Checker
	service  string
	version  string
	startAt  time.Time
}

// NewRegistry creates an empty registry
func NewRegistry(service, version string) *Registry {
	return &Registry{service: service, version: version, startAt: time.Now()}
}

// Register adds or replaces a checker
func (r *Registry) Register(checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.checkers {
		if c.Name() == checker.Name() {
			r.checkers[i] = checker
			return
		}
	}
	r.checkers = append(r.checkers, checker)
}

// Check runs all checks concurrently. The overall status is the worst
// individual status.
func (r *Registry) Check(ctx context.Context) *Report {
	r.mu.RLock()
	checkers := append([]Checker(nil), r.checkers...)
	r.mu.RUnlock()

	report := &Report{
		Service:   r.service,
		Version:   r.version,
		Status:    StatusHealthy,
		Uptime:    time.Since(r.startAt).Round(time.Second).String(),
		Timestamp: time.Now(),
		Checks:    make([]CheckResult, len(checkers)),
	}

	var wg sync.WaitGroup
	for i, c := range checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			start := time.Now()
			res := c.Check(ctx)
			res.Name = c.Name()
			res.Duration = time.Since(start)
			res.Timestamp = time.Now()
			report.Checks[i] = res
		}(i, c)
	}
	wg.Wait()

	for _, res := range report.Checks {
		if res.Status.rank() > report.Status.rank() {
			report.Status = res.Status
		}
	}
	return report
}

// Report is the overall health report served by /api/v1/health
type Report struct {
	Service   string        `json:"service"`
	Version   string        `json:"version"`
	Status    Status        `json:"status"`
	Uptime    string        `json:"uptime"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckResult `json:"checks"`
}

// Healthy reports whether the service can take traffic. Degraded counts
// as healthy.
func (r *Report) Healthy() bool {
	return r.Status != StatusUnhealthy
}

// PingCheck reports unhealthy when ping fails. Used for the sheet store.
func PingCheck(name string, ping func(ctx context.Context) error) Checker {
	return NewChecker(name, func(ctx context.Context) CheckResult {
		if err := ping(ctx); err != nil {
			return CheckResult{Status: StatusUnhealthy, Message: err.Error()}
		}
		return CheckResult{Status: StatusHealthy, Message: "ok"}
	})
}

// StatsCheck is always healthy and reports the figures returned by stats,
// e.g. the number of stored sheets or live connections
func StatsCheck(name string, stats func(ctx context.Context) (map[string]interface{}, error)) Checker {
	return NewChecker(name, func(ctx context.Context) CheckResult {
		details, err := stats(ctx)
		if err != nil {
			return CheckResult{Status: StatusDegraded, Message: err.Error()}
		}
		return CheckResult{Status: StatusHealthy, Details: details}
	})
}

// HTTPCheck requests url and reports degraded on failure, so an optional
// backend such as the assistant never marks the service unhealthy
func HTTPCheck(name, url string, timeout time.Duration) Checker {
	client := &http.Client{Timeout: timeout}
	return NewChecker(name, func(ctx context.Context) CheckResult {
		res := CheckResult{Status: StatusDegraded, Details: map[string]interface{}{"url": url}}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			res.Message = err.Error()
			return res
		}
		resp, err := client.Do(req)
		if err != nil {
			res.Message = err.Error()
			return res
		}
		resp.Body.Close()

		res.Details["status_code"] = resp.StatusCode
		if resp.StatusCode >= 400 {
			res.Message = fmt.Sprintf("unexpected status %d", resp.StatusCode)
			return res
		}
		res.Status = StatusHealthy
		res.Message = "reachable"
		return res
	})
}
