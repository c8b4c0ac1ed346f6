package store

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	// retryBaseDelay is the first backoff step for transient store faults.
	retryBaseDelay = 100 * time.Millisecond

	// retryMaxAttempts bounds how many times a transient fault is retried
	// before the error is surfaced as terminal.
	retryMaxAttempts = 4
)

// WithRetry runs fn, retrying with bounded exponential backoff as long as it
// returns a transient store fault (ErrTransient). Domain errors, conflicts
// and not-found results are surfaced immediately; after the attempt budget is
// exhausted the last error is returned as a terminal failure.
func WithRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(retryMaxAttempts, retry.NewExponential(retryBaseDelay))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if IsTransientError(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}
