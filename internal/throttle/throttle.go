// Package throttle runs a batch of tasks under two independent gates: a
// concurrency ceiling and a requests-per-window rate ceiling. The remote
// service enforces both limits separately, and concurrency alone cannot
// express a request rate when individual requests are slow.
package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config governs a dispatcher run. Timeout is the per-task request
// timeout, carried here so callers configure the whole upload shape in
// one place.
type Config struct {
	MaxConcurrent int
	IntervalCap   int
	Interval      time.Duration
	Timeout       time.Duration
}

// DefaultConfig is the safe default for the analysis service.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 5,
		IntervalCap:   10,
		Interval:      time.Second,
		Timeout:       30 * time.Second,
	}
}

// Sanitized replaces non-positive fields with the safe default and logs
// a non-fatal advisory when a caller-supplied value is more aggressive
// than the default.
func (c Config) Sanitized(log zerolog.Logger) Config {
	def := DefaultConfig()
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = def.MaxConcurrent
	}
	if c.IntervalCap <= 0 {
		c.IntervalCap = def.IntervalCap
	}
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	switch {
	case c.MaxConcurrent > def.MaxConcurrent || c.IntervalCap > def.IntervalCap || c.Interval < def.Interval:
		log.Warn().
			Int("maxConcurrent", c.MaxConcurrent).
			Int("intervalCap", c.IntervalCap).
			Dur("interval", c.Interval).
			Msg("throttle settings exceed the safe default; the service may reject requests")
	case c.MaxConcurrent < def.MaxConcurrent || c.IntervalCap < def.IntervalCap || c.Interval > def.Interval:
		log.Info().
			Int("maxConcurrent", c.MaxConcurrent).
			Int("intervalCap", c.IntervalCap).
			Dur("interval", c.Interval).
			Msg("throttle settings undercut the safe default; uploads will be slower than necessary")
	}
	return c
}

// Task is one unit of work. Tasks must capture their own failure state
// in T; the dispatcher never inspects results.
type Task[T any] func(context.Context) T

// Run executes tasks under cfg and returns one result per task, in
// submission order. At most MaxConcurrent tasks run at once and no more
// than IntervalCap tasks start within any Interval window. Admission is
// FIFO and a started task is never preempted. Run does not return until
// every admitted task has settled, so callers can treat its return as a
// completion barrier.
//
// cfg must have positive fields; build it with DefaultConfig or pass a
// caller-supplied config through Sanitized first.
func Run[T any](ctx context.Context, cfg Config, tasks []Task[T]) []T {
	sem := semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	limiter := rate.NewLimiter(
		rate.Limit(float64(cfg.IntervalCap)/cfg.Interval.Seconds()),
		cfg.IntervalCap,
	)

	results := make([]T, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		// Both gates must admit a task before it starts. Waiting on the
		// rate limiter first keeps slow in-flight requests from consuming
		// window tokens they are not using.
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int, task Task[T]) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = task(ctx)
		}(i, task)
	}
	wg.Wait()
	return results
}
