package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrTimeout is reported for checks that did not finish in time.
var ErrTimeout = errors.New("health: check timed out")

// Status is the outcome of a check.
type Status int

const (
	StatusHealthy Status = iota
	// StatusDegraded means the component is failing but the service still
	// answers, e.g. a cache outage that falls back to the database.
	StatusDegraded
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result is what a single check reports.
type Result struct {
	Status   Status
	Message  string
	Error    error
	Duration time.Duration
}

// Checker probes one dependency.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

// Pinger is satisfied by the store and the cache backends.
type Pinger interface {
	Ping(ctx context.Context) error
}

type pingChecker struct {
	name    string
	pinger  Pinger
	onError Status
}

// PingChecker reports healthy when p answers, onError otherwise.
func PingChecker(name string, p Pinger, onError Status) Checker {
	return &pingChecker{name: name, pinger: p, onError: onError}
}

func (c *pingChecker) Name() string { return c.name }

func (c *pingChecker) Check(ctx context.Context) Result {
	if err := c.pinger.Ping(ctx); err != nil {
		return Result{Status: c.onError, Message: "ping failed", Error: err}
	}
	return Result{Status: StatusHealthy, Message: "ok"}
}

// Aggregator runs registered checkers in parallel.
type Aggregator struct {
	timeout time.Duration

	mu       sync.RWMutex
	checkers []Checker
}

// NewAggregator returns an Aggregator bounding each run by timeout.
func NewAggregator(timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Aggregator{timeout: timeout}
}

// Register adds c; a checker with the same name is replaced.
func (a *Aggregator) Register(c Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, existing := range a.checkers {
		if existing.Name() == c.Name() {
			a.checkers[i] = c
			return
		}
	}
	a.checkers = append(a.checkers, c)
}

// CheckAll runs every checker and returns the results by name.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	a.mu.RLock()
	checkers := append([]Checker(nil), a.checkers...)
	a.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	results := make([]Result, len(checkers))
	var g errgroup.Group
	for i, c := range checkers {
		g.Go(func() error {
			results[i] = run(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]Result, len(checkers))
	for i, c := range checkers {
		out[c.Name()] = results[i]
	}
	return out
}

func run(ctx context.Context, c Checker) Result {
	start := time.Now()
	done := make(chan Result, 1)
	go func() { done <- c.Check(ctx) }()

	select {
	case r := <-done:
		r.Duration = time.Since(start)
		return r
	case <-ctx.Done():
		return Result{Status: StatusUnhealthy, Message: "check timed out", Error: ErrTimeout, Duration: time.Since(start)}
	}
}

// Overall is the worst status among results.
func Overall(results map[string]Result) Status {
	worst := StatusHealthy
	for _, r := range results {
		if r.Status > worst {
			worst = r.Status
		}
	}
	return worst
}
