// Package health runs liveness and readiness probes and serves them over HTTP.
package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lewisedginton/dating_coach/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Check is a single named probe. Check returns nil when healthy.
type Check interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a plain function to Check.
type CheckFunc struct {
	name string
	fn   func(context.Context) error
}

// NewCheckFunc creates a new CheckFunc with the given name and function.
func NewCheckFunc(name string, fn func(context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, fn: fn}
}

func (c *CheckFunc) Name() string {
	return c.name
}

func (c *CheckFunc) Check(ctx context.Context) error {
	return c.fn(ctx)
}

// CheckResult is the outcome of one probe execution.
type CheckResult struct {
	Name    string
	Healthy bool
	Error   string
	Latency time.Duration
}

// HealthStatus is the aggregated outcome of a probe set.
type HealthStatus struct {
	Healthy bool
	Checks  []CheckResult
}

// HealthChecker holds the liveness and readiness probe sets. A probe only reports
// unhealthy after failureThreshold consecutive failures.
type HealthChecker struct {
	mu               sync.Mutex
	livenessChecks   []Check
	readinessChecks  []Check
	timeout          time.Duration
	failureThreshold int
	failures         map[string]int
	logger           logger.Logger
}

// Option configures a HealthChecker.
type Option func(*HealthChecker)

// WithTimeout bounds each individual probe. Default is 5 seconds.
func WithTimeout(d time.Duration) Option {
	return func(h *HealthChecker) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithLogger sets the logger for health check operations.
func WithLogger(l logger.Logger) Option {
	return func(h *HealthChecker) {
		h.logger = l
	}
}

// WithFailureThreshold sets how many consecutive failures flip a probe to unhealthy.
// Default is 3.
func WithFailureThreshold(threshold int) Option {
	return func(h *HealthChecker) {
		if threshold > 0 {
			h.failureThreshold = threshold
		}
	}
}

// New creates a HealthChecker.
func New(opts ...Option) *HealthChecker {
	h := &HealthChecker{
		timeout:          5 * time.Second,
		failureThreshold: 3,
		failures:         make(map[string]int),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AddLivenessCheck registers a probe that decides whether the process should be restarted.
func (h *HealthChecker) AddLivenessCheck(check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.livenessChecks = append(h.livenessChecks, check)
}

// AddReadinessCheck registers a probe that decides whether the service takes traffic.
func (h *HealthChecker) AddReadinessCheck(check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readinessChecks = append(h.readinessChecks, check)
}

// CheckLiveness runs every liveness probe.
func (h *HealthChecker) CheckLiveness(ctx context.Context) (*HealthStatus, error) {
	h.mu.Lock()
	checks := append([]Check(nil), h.livenessChecks...)
	h.mu.Unlock()
	return h.run(ctx, checks)
}

// CheckReadiness runs every readiness probe.
func (h *HealthChecker) CheckReadiness(ctx context.Context) (*HealthStatus, error) {
	h.mu.Lock()
	checks := append([]Check(nil), h.readinessChecks...)
	h.mu.Unlock()
	return h.run(ctx, checks)
}

// run executes checks concurrently. A failing probe never cancels its siblings.
func (h *HealthChecker) run(ctx context.Context, checks []Check) (*HealthStatus, error) {
	status := &HealthStatus{Healthy: true, Checks: make([]CheckResult, len(checks))}
	if len(checks) == 0 {
		return status, nil
	}

	var g errgroup.Group
	for i, check := range checks {
		g.Go(func() error {
			status.Checks[i] = h.probe(ctx, check)
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	for _, r := range status.Checks {
		if !r.Healthy {
			failed = append(failed, r.Name)
		}
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		status.Healthy = false
		return status, fmt.Errorf("health checks failed: %v", failed)
	}
	return status, nil
}

func (h *HealthChecker) probe(parent context.Context, check Check) CheckResult {
	ctx, cancel := context.WithTimeout(parent, h.timeout)
	defer cancel()

	start := time.Now()
	err := check.Check(ctx)
	result := CheckResult{Name: check.Name(), Latency: time.Since(start), Healthy: true}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err == nil {
		h.failures[result.Name] = 0
		h.debug("Health check passed", logger.StringField("check", result.Name), logger.DurationField("latency", result.Latency))
		return result
	}

	h.failures[result.Name]++
	count := h.failures[result.Name]
	if count < h.failureThreshold {
		h.debug("Health check failed but below threshold",
			logger.StringField("check", result.Name),
			logger.ErrorField(err),
			logger.IntField("failures", count),
			logger.IntField("threshold", h.failureThreshold),
		)
		return result
	}

	result.Healthy = false
	result.Error = err.Error()
	if h.logger != nil {
		h.logger.Warn("Health check failed",
			logger.StringField("check", result.Name),
			logger.ErrorField(err),
			logger.IntField("failures", count),
			logger.DurationField("latency", result.Latency),
		)
	}
	return result
}

func (h *HealthChecker) debug(msg string, fields ...logger.LogField) {
	if h.logger != nil {
		h.logger.Debug(msg, fields...)
	}
}
