// Package health runs readiness checks against the server's
// dependencies, which for textpaste is the storage backend.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status represents the health of a dependency.
type Status string

const (
	StatusOK   Status = "ok"
	StatusDown Status = "down"
)

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) Status

// Checker holds named dependency checks.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
	logger  zerolog.Logger
}

// NewChecker creates a health checker. Each check runs with a 5 second
// timeout.
func NewChecker(logger zerolog.Logger) *Checker {
	return &Checker{
		checks:  make(map[string]CheckFunc),
		timeout: 5 * time.Second,
		logger:  logger.With().Str("component", "health").Logger(),
	}
}

// Register adds a named check.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
}

// RunAll executes all checks concurrently and returns their statuses.
func (c *Checker) RunAll(ctx context.Context) map[string]Status {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		checks[name] = fn
	}
	c.mu.RUnlock()

	results := make(map[string]Status, len(checks))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, fn := range checks {
		wg.Add(1)
		go func(name string, fn CheckFunc) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			status := fn(checkCtx)
			if status != StatusOK {
				c.logger.Warn().Str("check", name).Str("status", string(status)).Msg("dependency unhealthy")
			}
			mu.Lock()
			results[name] = status
			mu.Unlock()
		}(name, fn)
	}
	wg.Wait()

	return results
}

// IsReady reports whether every registered check passes.
func (c *Checker) IsReady(ctx context.Context) bool {
	for _, status := range c.RunAll(ctx) {
		if status == StatusDown {
			return false
		}
	}
	return true
}
