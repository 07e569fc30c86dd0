// Package limits holds the two admission-control primitives shared by all
// in-flight scoring work: a rolling-window rate limiter for calls to the
// inference service and a slot gate bounding simultaneous calls.
//
// Both are explicit objects handed to the orchestrator at construction so the
// same window and slot counter can be shared across requests for one caller.
package limits

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// RateLimiter admits at most R calls per trailing window. It refills at
// R/window per second with a burst of R, so a cold limiter may admit up to R
// calls instantaneously before throttling kicks in. Waiters are served FIFO.
type RateLimiter struct {
	l *rate.Limiter
}

// NewRateLimiter builds a limiter admitting perWindow calls per window.
// perWindow <= 0 disables limiting. A zero window defaults to one minute.
func NewRateLimiter(perWindow int, window time.Duration) *RateLimiter {
	if perWindow <= 0 {
		return &RateLimiter{}
	}
	if window <= 0 {
		window = time.Minute
	}
	refill := rate.Limit(float64(perWindow) / window.Seconds())
	return &RateLimiter{l: rate.NewLimiter(refill, perWindow)}
}

// Wait blocks the calling goroutine until admitting it stays within the
// window, or until ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil || r.l == nil {
		return ctx.Err()
	}
	return r.l.Wait(ctx)
}

// ConcurrencyGate bounds the number of goroutines holding a slot. A slot must
// be released exactly once on every exit path.
type ConcurrencyGate struct {
	sem *semaphore.Weighted
}

// NewConcurrencyGate builds a gate with the given number of slots.
// slots <= 0 disables the gate.
func NewConcurrencyGate(slots int) *ConcurrencyGate {
	if slots <= 0 {
		return &ConcurrencyGate{}
	}
	return &ConcurrencyGate{sem: semaphore.NewWeighted(int64(slots))}
}

// Acquire blocks until a slot is free or ctx is done.
func (g *ConcurrencyGate) Acquire(ctx context.Context) error {
	if g == nil || g.sem == nil {
		return ctx.Err()
	}
	return g.sem.Acquire(ctx, 1)
}

// Release returns a previously acquired slot.
func (g *ConcurrencyGate) Release() {
	if g == nil || g.sem == nil {
		return
	}
	g.sem.Release(1)
}
