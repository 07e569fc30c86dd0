package engine

import (
	"math/rand/v2"
	"time"

	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/core"
)

// RetryPolicy decides whether a failed model call is retried and how long to
// back off before the next attempt. The decision is a pure function of the
// failure category and the attempt number, so it is testable without time
// passing; the jittered delay is computed separately.
type RetryPolicy struct {
	// MaxRetries is the number of extra attempts after the first.
	MaxRetries int

	// BackoffInitial is the delay before the first retry.
	BackoffInitial time.Duration
	// BackoffMax caps exponential growth.
	BackoffMax time.Duration
	// BackoffJitterFrac applies +/- jitter to delays (0.2 = +/-20%), so
	// retries of concurrent chunks do not synchronize against the limiter.
	BackoffJitterFrac float64
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BackoffInitial <= 0 {
		p.BackoffInitial = 1500 * time.Millisecond
	}
	if p.BackoffMax <= 0 {
		p.BackoffMax = 30 * time.Second
	}
	if p.BackoffJitterFrac < 0 {
		p.BackoffJitterFrac = 0
	}
	return p
}

// Decide reports whether the call should be retried after the given attempt
// failed with cat. attempt is zero-based: with MaxRetries=2, attempts 0 and 1
// are retried and attempt 2 gives up.
func (p RetryPolicy) Decide(cat core.Category, attempt int) bool {
	p = p.withDefaults()
	return cat.Retryable() && attempt < p.MaxRetries
}

// Backoff returns the jittered delay before retrying the given zero-based
// attempt. Growth is exponential from BackoffInitial, capped at BackoffMax.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	p = p.withDefaults()
	sleep := p.BackoffInitial
	for i := 0; i < attempt && sleep < p.BackoffMax; i++ {
		sleep *= 2
		if sleep > p.BackoffMax {
			sleep = p.BackoffMax
			break
		}
	}
	if p.BackoffJitterFrac <= 0 {
		return sleep
	}
	j := 1 + (rand.Float64()*2-1)*p.BackoffJitterFrac
	return time.Duration(float64(sleep) * j)
}
