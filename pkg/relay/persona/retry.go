package persona

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 1 * time.Second
	DefaultRetryTimeout  = 5 * time.Second
)

// RetryPolicy bounds datastore calls. AttemptTimeout limits each attempt;
// zero leaves attempts bounded only by ctx.
type RetryPolicy struct {
	Attempts       int
	Delay          time.Duration
	AttemptTimeout time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:       DefaultRetryAttempts,
		Delay:          DefaultRetryDelay,
		AttemptTimeout: DefaultRetryTimeout,
	}
}

// Do runs fn until it succeeds, returns ErrNotFound, or the attempts run
// out. Exhaustion is reported as ErrDatastoreUnavailable.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = p.attempt(ctx, fn)
		if lastErr == nil || errors.Is(lastErr, ErrNotFound) {
			return lastErr
		}

		slog.Warn("datastore operation failed", "op", op, "attempt", attempt, "error", lastErr)

		if attempt == attempts {
			break
		}

		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrDatastoreUnavailable, ctx.Err())
		}
	}

	return fmt.Errorf("%w: %s failed after %d attempts: %v", ErrDatastoreUnavailable, op, attempts, lastErr)
}

func (p RetryPolicy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.AttemptTimeout <= 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
	defer cancel()

	return fn(ctx)
}
