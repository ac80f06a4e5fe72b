// Package health provides a registry of named subsystem health checkers.
package health

import (
	"context"
	"sync"
	"time"
)

// DefaultCheckTimeout bounds a single checker when none is configured.
const DefaultCheckTimeout = 2 * time.Second

// Status represents the health of a single subsystem.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Checker is a function that checks the health of a subsystem.
type Checker func(ctx context.Context) Status

// Registry holds named health checkers and runs them on demand.
type Registry struct {
	mu       sync.RWMutex
	checkers []namedChecker
	timeout  time.Duration
}

type namedChecker struct {
	name  string
	check Checker
}

// NewRegistry creates a registry whose checkers each get timeout to answer.
// A non-positive timeout uses DefaultCheckTimeout.
func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	return &Registry{timeout: timeout}
}

// Register adds a named health checker.
func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	r.checkers = append(r.checkers, namedChecker{name: name, check: check})
	r.mu.Unlock()
}

// CheckAll runs all registered checkers in parallel and returns the
// aggregate health plus individual results in registration order. A checker
// that does not answer within the timeout is reported unhealthy.
func (r *Registry) CheckAll(ctx context.Context) (healthy bool, statuses []Status) {
	r.mu.RLock()
	checkers := make([]namedChecker, len(r.checkers))
	copy(checkers, r.checkers)
	r.mu.RUnlock()

	statuses = make([]Status, len(checkers))
	var wg sync.WaitGroup
	for i, nc := range checkers {
		wg.Add(1)
		go func(i int, nc namedChecker) {
			defer wg.Done()
			statuses[i] = r.run(ctx, nc)
		}(i, nc)
	}
	wg.Wait()

	healthy = true
	for _, s := range statuses {
		if !s.Healthy {
			healthy = false
		}
	}
	return healthy, statuses
}

func (r *Registry) run(ctx context.Context, nc namedChecker) Status {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan Status, 1)
	go func() { done <- nc.check(ctx) }()

	select {
	case s := <-done:
		if s.Name == "" {
			s.Name = nc.name
		}
		return s
	case <-ctx.Done():
		return Status{Name: nc.name, Healthy: false, Detail: "check timed out"}
	}
}
