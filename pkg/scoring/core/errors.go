package core

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Category is a failure class for one chunk's model call.
type Category string

const (
	CategoryInvalidJSON     Category = "invalid_json"
	CategoryAPITimeout      Category = "api_timeout"
	CategoryAPIRateLimit    Category = "api_ratelimit"
	CategoryAPIFailure      Category = "api_failure"
	CategoryInvalidProspect Category = "invalid_prospect_payload"
)

// Categories lists all failure categories in a stable order.
func Categories() []Category {
	return []Category{
		CategoryInvalidJSON,
		CategoryAPITimeout,
		CategoryAPIRateLimit,
		CategoryAPIFailure,
		CategoryInvalidProspect,
	}
}

// Retryable reports whether calls failing with this category may be retried.
func (c Category) Retryable() bool {
	switch c {
	case CategoryAPITimeout, CategoryAPIRateLimit, CategoryAPIFailure:
		return true
	default:
		return false
	}
}

// ErrInvalidInput is the single whole-call fatal condition: the input
// collection itself is structurally broken. Everything else resolves into
// per-prospect fallback results.
var ErrInvalidInput = errors.New("invalid scoring input")

// ChunkError couples a failure category with its underlying cause.
type ChunkError struct {
	Category Category
	Err      error
}

func (e *ChunkError) Error() string {
	if e.Err == nil {
		return string(e.Category)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Err.Error())
}

func (e *ChunkError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewChunkError wraps err with a category.
func NewChunkError(cat Category, err error) *ChunkError {
	return &ChunkError{Category: cat, Err: err}
}

// Classify maps an arbitrary error from a model call into a Category.
// Typed ChunkErrors win; deadline and network timeouts become api_timeout;
// anything else is a generic api_failure.
func Classify(err error) Category {
	if err == nil {
		return CategoryAPIFailure
	}
	var ce *ChunkError
	if errors.As(err, &ce) {
		return ce.Category
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryAPITimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return CategoryAPITimeout
	}
	return CategoryAPIFailure
}
