// Package startup sequences process-wide dependencies: connect and verify at
// boot, fail fast when the store is misconfigured, tear down in reverse order
// on shutdown.
package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
)

// Dependency is one startable unit owned by the hosting process. Start must
// block until the dependency is usable or return an error; Stop must release
// its resources and be safe to call after a failed Start.
type Dependency interface {
	GetName() string
	DependsOn() []string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type status int

const (
	statusPending status = iota
	statusStarted
	statusStopped
	statusFailed
)

// Controller starts and stops dependencies in order. Registration order is the
// baseline start order; DependsOn edges pull prerequisites forward. Stop runs
// in reverse registration order.
type Controller struct {
	order       []Dependency
	byName      map[string]Dependency
	statuses    map[string]status
	logger      ectologger.Logger
	maxAttempts int
}

// NewController creates a lifecycle controller. maxAttempts bounds how many
// full startup passes are made before giving up.
func NewController(logger ectologger.Logger, maxAttempts int) *Controller {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Controller{
		byName:      make(map[string]Dependency),
		statuses:    make(map[string]status),
		logger:      logger,
		maxAttempts: maxAttempts,
	}
}

// Add registers a dependency. Later registrations with the same name replace
// earlier ones.
func (c *Controller) Add(dep Dependency) {
	if _, exists := c.byName[dep.GetName()]; !exists {
		c.order = append(c.order, dep)
	}
	c.byName[dep.GetName()] = dep
}

// Start brings every dependency up, retrying failed passes with Fibonacci
// backoff up to the configured attempt budget.
func (c *Controller) Start(ctx context.Context) error {
	var lastErr error

	a, b := 1, 1
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		c.logger.WithField("attempt", attempt).Infof("Beginning startup attempt %d", attempt)

		lastErr = nil
		for _, dep := range c.order {
			if err := c.startDependency(ctx, dep); err != nil {
				c.logger.WithError(err).Errorf("Startup dependency '%s' attempt %d failed", dep.GetName(), attempt)
				lastErr = err
				break
			}
		}

		if lastErr == nil {
			return nil
		}

		if attempt == c.maxAttempts {
			break
		}

		wait := time.Duration(a) * time.Second
		c.logger.Infof("Retrying startup in %s (attempt %d/%d)", wait, attempt, c.maxAttempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		a, b = b, a+b
	}

	return fmt.Errorf("startup failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Controller) startDependency(ctx context.Context, dep Dependency) error {
	name := dep.GetName()
	if c.statuses[name] == statusStarted {
		return nil
	}

	for _, prereq := range dep.DependsOn() {
		prereqDep, ok := c.byName[prereq]
		if !ok {
			return fmt.Errorf("dependency '%s' depends on unregistered '%s'", name, prereq)
		}
		if c.statuses[prereq] != statusStarted {
			if err := c.startDependency(ctx, prereqDep); err != nil {
				return err
			}
		}
	}

	c.logger.WithField("dependency", name).Infof("Starting dependency '%s'", name)
	if err := dep.Start(ctx); err != nil {
		c.statuses[name] = statusFailed
		return fmt.Errorf("failed to start '%s': %w", name, err)
	}
	c.statuses[name] = statusStarted
	return nil
}

// Stop tears dependencies down in reverse registration order. Dependencies
// that never started are still asked to stop; their Stop must be a no-op.
func (c *Controller) Stop(ctx context.Context) error {
	var firstErr error

	for i := len(c.order) - 1; i >= 0; i-- {
		dep := c.order[i]
		name := dep.GetName()
		if c.statuses[name] == statusStopped {
			continue
		}

		c.logger.WithField("dependency", name).Infof("Stopping dependency '%s'", name)
		if err := dep.Stop(ctx); err != nil {
			c.logger.WithError(err).Errorf("Failed to stop dependency '%s'", name)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		c.statuses[name] = statusStopped
	}

	return firstErr
}
