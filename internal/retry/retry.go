// Package retry wraps a single network operation with bounded retries,
// exponential backoff with jitter, and honoring of server retry hints.
// It distinguishes transient failures, which are retried, from fatal
// ones, which abort immediately.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"time"

	retrygo "github.com/avast/retry-go/v4"

	"github.com/insightify/insightify-cli/internal/api"
)

// Policy controls one operation's retry behavior. Attempts is the total
// number of tries including the first.
type Policy struct {
	Attempts   uint
	MinDelay   time.Duration
	MaxDelay   time.Duration
	JitterCeil time.Duration
}

// DefaultPolicy is the policy applied to per-file analyse calls.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:   3,
		MinDelay:   500 * time.Millisecond,
		MaxDelay:   8 * time.Second,
		JitterCeil: 250 * time.Millisecond,
	}
}

// Do runs op until it succeeds, fails fatally, or exhausts the allowed
// attempts. The last error is returned unwrapped of retry bookkeeping so
// callers can classify it.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	return retrygo.Do(
		func() error { return op(ctx) },
		retrygo.Context(ctx),
		retrygo.Attempts(p.Attempts),
		retrygo.RetryIf(IsRetryable),
		retrygo.DelayType(p.delayFor),
		retrygo.LastErrorOnly(true),
	)
}

// IsRetryable reports whether the error is transient: a request timeout
// or a service response with status 408, 429, or 5xx. Everything else is
// fatal and must not be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return false
}

// delayFor computes the wait before retry n+1. A server-supplied
// Retry-After hint is honored verbatim; otherwise the delay grows
// exponentially from MinDelay up to MaxDelay, plus a bounded random
// jitter so concurrently throttled tasks do not retry in lockstep.
func (p Policy) delayFor(n uint, err error, _ *retrygo.Config) time.Duration {
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
		return statusErr.RetryAfter
	}

	delay := p.MinDelay << n
	if delay > p.MaxDelay || delay <= 0 {
		delay = p.MaxDelay
	}
	if p.JitterCeil > 0 {
		delay += rand.N(p.JitterCeil)
	}
	return delay
}
