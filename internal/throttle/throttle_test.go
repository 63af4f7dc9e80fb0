package throttle

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRunReturnsAllResultsInSubmissionOrder(t *testing.T) {
	tasks := make([]Task[int], 20)
	for i := range tasks {
		i := i
		tasks[i] = func(ctx context.Context) int { return i * 2 }
	}

	results := Run(context.Background(), Config{MaxConcurrent: 4, IntervalCap: 100, Interval: time.Second}.Sanitized(zerolog.Nop()), tasks)

	assert.Len(t, results, 20)
	for i, r := range results {
		assert.Equal(t, i*2, r)
	}
}

func TestConcurrencyCeilingIsNeverExceeded(t *testing.T) {
	const maxConcurrent = 3
	var running, peak atomic.Int32
	var mu sync.Mutex

	tasks := make([]Task[struct{}], 30)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) struct{} {
			n := running.Add(1)
			mu.Lock()
			if n > peak.Load() {
				peak.Store(n)
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return struct{}{}
		}
	}

	Run(context.Background(), Config{MaxConcurrent: maxConcurrent, IntervalCap: 1000, Interval: time.Second}.Sanitized(zerolog.Nop()), tasks)

	assert.LessOrEqual(t, peak.Load(), int32(maxConcurrent))
}

func TestRateWindowSpacesTaskStarts(t *testing.T) {
	// 2 starts allowed per 50ms window: 6 tasks need at least two extra
	// windows beyond the initial burst.
	var starts []time.Time
	var mu sync.Mutex
	tasks := make([]Task[struct{}], 6)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) struct{} {
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
			return struct{}{}
		}
	}

	began := time.Now()
	Run(context.Background(), Config{MaxConcurrent: 6, IntervalCap: 2, Interval: 50 * time.Millisecond}.Sanitized(zerolog.Nop()), tasks)
	elapsed := time.Since(began)

	assert.Len(t, starts, 6)
	assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond, "starts beyond the burst must wait for the rate window")
}

func TestRunIsACompletionBarrier(t *testing.T) {
	var settled atomic.Int32
	tasks := make([]Task[struct{}], 10)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) struct{} {
			time.Sleep(2 * time.Millisecond)
			settled.Add(1)
			return struct{}{}
		}
	}

	Run(context.Background(), DefaultConfig(), tasks)

	assert.Equal(t, int32(10), settled.Load(), "Run must not return before every task settles")
}

func TestSanitizedAppliesDefaults(t *testing.T) {
	cfg := Config{}.Sanitized(zerolog.Nop())
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSanitizedWarnsOnAggressiveOverrides(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	cfg := Config{MaxConcurrent: 50, IntervalCap: 5, Interval: time.Second, Timeout: time.Second}.Sanitized(log)

	// The override is advisory, not clamped.
	assert.Equal(t, 50, cfg.MaxConcurrent)
	assert.Contains(t, buf.String(), "safe default")
}

func TestSanitizedNotesConservativeOverrides(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	cfg := Config{MaxConcurrent: 2, IntervalCap: 3, Interval: 2 * time.Second, Timeout: time.Second}.Sanitized(log)

	// Slower-than-default settings are kept as given and only noted.
	assert.Equal(t, 2, cfg.MaxConcurrent)
	assert.Equal(t, 3, cfg.IntervalCap)
	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.Contains(t, buf.String(), "undercut the safe default")
	assert.Contains(t, buf.String(), `"level":"info"`)
}

func TestCanceledContextStopsAdmission(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var started atomic.Int32
	tasks := make([]Task[struct{}], 5)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) struct{} {
			started.Add(1)
			return struct{}{}
		}
	}

	results := Run(ctx, DefaultConfig(), tasks)

	// Results slice keeps one slot per task even when admission stops early.
	assert.Len(t, results, 5)
	assert.Equal(t, int32(0), started.Load())
}
