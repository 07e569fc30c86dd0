package engine_test

import (
	"testing"
	"time"

	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/core"
	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/engine"
)

func TestRetryPolicy_Decide(t *testing.T) {
	t.Parallel()

	policy := engine.RetryPolicy{MaxRetries: 2}

	tests := []struct {
		name    string
		cat     core.Category
		attempt int
		want    bool
	}{
		{name: "timeout_first_attempt", cat: core.CategoryAPITimeout, attempt: 0, want: true},
		{name: "timeout_second_attempt", cat: core.CategoryAPITimeout, attempt: 1, want: true},
		{name: "timeout_exhausted", cat: core.CategoryAPITimeout, attempt: 2, want: false},
		{name: "ratelimit_retryable", cat: core.CategoryAPIRateLimit, attempt: 0, want: true},
		{name: "failure_retryable", cat: core.CategoryAPIFailure, attempt: 1, want: true},
		{name: "invalid_json_never", cat: core.CategoryInvalidJSON, attempt: 0, want: false},
		{name: "invalid_payload_never", cat: core.CategoryInvalidProspect, attempt: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.Decide(tt.cat, tt.attempt); got != tt.want {
				t.Fatalf("Decide(%s, %d)=%v want=%v", tt.cat, tt.attempt, got, tt.want)
			}
		})
	}
}

func TestRetryPolicy_BackoffGrowsAndCaps(t *testing.T) {
	t.Parallel()

	policy := engine.RetryPolicy{
		BackoffInitial:    100 * time.Millisecond,
		BackoffMax:        500 * time.Millisecond,
		BackoffJitterFrac: 0,
	}

	if got := policy.Backoff(0); got != 100*time.Millisecond {
		t.Fatalf("attempt 0: got %s", got)
	}
	if got := policy.Backoff(1); got != 200*time.Millisecond {
		t.Fatalf("attempt 1: got %s", got)
	}
	if got := policy.Backoff(2); got != 400*time.Millisecond {
		t.Fatalf("attempt 2: got %s", got)
	}
	if got := policy.Backoff(3); got != 500*time.Millisecond {
		t.Fatalf("attempt 3 should cap at max: got %s", got)
	}
	if got := policy.Backoff(10); got != 500*time.Millisecond {
		t.Fatalf("attempt 10 should cap at max: got %s", got)
	}
}

func TestRetryPolicy_BackoffJitterStaysBounded(t *testing.T) {
	t.Parallel()

	policy := engine.RetryPolicy{
		BackoffInitial:    100 * time.Millisecond,
		BackoffMax:        10 * time.Second,
		BackoffJitterFrac: 0.2,
	}

	for i := 0; i < 200; i++ {
		got := policy.Backoff(1)
		if got < 160*time.Millisecond || got > 240*time.Millisecond {
			t.Fatalf("jittered backoff %s outside [160ms, 240ms]", got)
		}
	}
}
