package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is a dependency that can answer a liveness round trip
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker handles health check endpoints
type Checker struct {
	graph     Pinger
	cache     Pinger
	version   string
	startTime time.Time
	ready     atomic.Bool
}

// NewChecker creates a new health checker. cache may be nil when the
// recommendation cache is disabled.
func NewChecker(graph Pinger, cache Pinger, version string) *Checker {
	return &Checker{
		graph:     graph,
		cache:     cache,
		version:   version,
		startTime: time.Now(),
	}
}

// SetReady sets the readiness state
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

// RegisterRoutes registers health check endpoints
func (c *Checker) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/health", c.Health)
	e.GET("/api/v1/health/live", c.Live)
	e.GET("/api/v1/health/ready", c.Ready)
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status     string                  `json:"status"`
	Version    string                  `json:"version"`
	Uptime     string                  `json:"uptime"`
	Checks     map[string]*CheckResult `json:"checks"`
	ReportedAt time.Time               `json:"reported_at"`
}

// CheckResult represents an individual check result
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Health returns the overall health status
func (c *Checker) Health(ctx echo.Context) error {
	status := &HealthStatus{
		Status:     "healthy",
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Checks:     make(map[string]*CheckResult),
		ReportedAt: time.Now(),
	}

	reqCtx := ctx.Request().Context()

	if c.graph != nil {
		status.Checks["graph"] = runCheck(reqCtx, c.graph)
		if status.Checks["graph"].Status != "healthy" {
			status.Status = "unhealthy"
		}
	} else {
		status.Status = "unhealthy"
		status.Checks["graph"] = &CheckResult{
			Status:  "unhealthy",
			Message: "graph store not configured",
		}
	}

	if c.cache != nil {
		status.Checks["cache"] = runCheck(reqCtx, c.cache)
		if status.Checks["cache"].Status != "healthy" {
			status.Status = "unhealthy"
		}
	}

	httpStatus := http.StatusOK
	if status.Status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	return ctx.JSON(httpStatus, status)
}

func runCheck(ctx context.Context, p Pinger) *CheckResult {
	start := time.Now()
	err := p.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return &CheckResult{
			Status:  "unhealthy",
			Message: err.Error(),
		}
	}
	return &CheckResult{
		Status:  "healthy",
		Latency: latency.String(),
	}
}

// Live returns the liveness status (is the service running)
func (c *Checker) Live(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

// Ready returns the readiness status (is the service ready to accept traffic)
func (c *Checker) Ready(ctx echo.Context) error {
	if c.ready.Load() {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
	}
	return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
}
