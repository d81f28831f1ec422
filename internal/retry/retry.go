// Package retry provides a generic retry-with-backoff helper shared by the
// embedding client, the chat client, and the vector store adapters.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uavquery/queryengine/internal/metrics"
)

const defaultBaseBackoff = 250 * time.Millisecond

// Budget bounds a sequence of retry attempts.
type Budget struct {
	// MaxAttempts is the total number of tries, including the first.
	// A value <= 1 means no retries.
	MaxAttempts int
	// BaseBackoff is the delay before the second attempt; each
	// subsequent attempt doubles it.
	BaseBackoff time.Duration
}

// DefaultBudget makes three attempts in total (two retries) with a
// 250ms base backoff.
func DefaultBudget() Budget {
	return Budget{MaxAttempts: 3, BaseBackoff: defaultBaseBackoff}
}

// RetryableError marks an error as transient. Do stops retrying immediately
// on any error that isn't wrapped this way.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err so Do will retry it.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func isRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Do runs fn up to budget.MaxAttempts times, waiting with exponential
// backoff between attempts, stopping early on a non-retryable error or on
// context cancellation. It returns the last error on exhaustion. component
// labels the retry-attempt metric (e.g. "embedclient", "chatclient",
// "qdrant.similarity_search") so operators can see which dependency is flaking.
func Do(ctx context.Context, component string, budget Budget, fn func(ctx context.Context) error) error {
	attempts := budget.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	base := budget.BaseBackoff
	if base <= 0 {
		base = defaultBaseBackoff
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			metrics.RetriesTotal.WithLabelValues(component).Inc()
			backoff := base * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			var re *RetryableError
			if errors.As(err, &re) {
				return re.Err
			}
			return err
		}
	}

	var re *RetryableError
	if errors.As(lastErr, &re) {
		return fmt.Errorf("retry: attempts exhausted: %w", re.Err)
	}
	return fmt.Errorf("retry: attempts exhausted: %w", lastErr)
}
