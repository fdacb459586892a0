package store

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// vectorRetryDelays are the fixed backoff steps for retrying idempotent
// vector store operations (spec §4.3): 100ms, 250ms, 600ms, then give up.
var vectorRetryDelays = []time.Duration{100 * time.Millisecond, 250 * time.Millisecond, 600 * time.Millisecond}

// vectorBackoff returns a Backoff following vectorRetryDelays, one retry per
// step, exhausted after len(vectorRetryDelays) retries.
func vectorBackoff() retry.Backoff {
	i := 0

	return retry.BackoffFunc(func() (time.Duration, bool) {
		if i >= len(vectorRetryDelays) {
			return 0, false
		}

		d := vectorRetryDelays[i]
		i++

		return d, true
	})
}

// withVectorRetry retries an idempotent VectorStore call (Upsert or Delete)
// on the fixed 100/250/600ms schedule before the caller surfaces
// models.ErrVectorBackendError.
func withVectorRetry(ctx context.Context, f func(ctx context.Context) error) error {
	return retry.Do(ctx, vectorBackoff(), func(ctx context.Context) error {
		if err := f(ctx); err != nil {
			return retry.RetryableError(err)
		}

		return nil
	})
}
