package run

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jmaddaus/cairn/internal/github"
)

const (
	// DefaultCreateAttempts bounds remote create calls per item.
	DefaultCreateAttempts = 3
	// DefaultLinkAttempts bounds link calls per item. Linking gets a larger
	// budget: a missing link is cheap to retry and a failure here never
	// invalidates the created item.
	DefaultLinkAttempts = 5
	// DefaultRetryBaseDelay is the initial backoff interval.
	DefaultRetryBaseDelay = 2 * time.Second
)

func newRetryBackoff(baseDelay time.Duration, attempts int) backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = baseDelay
	bo.MaxElapsedTime = 0
	return backoff.WithMaxRetries(bo, uint64(attempts-1))
}

// withRetry executes op with exponential backoff. Only failures the gateway
// classifies as transient are retried; validation rejections and anything
// else stop immediately.
func withRetry(ctx context.Context, baseDelay time.Duration, attempts int, op func() error) error {
	bo := newRetryBackoff(baseDelay, attempts)
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !github.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
}
