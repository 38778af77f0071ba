package llm

import (
	"context"
	"time"
)

// DefaultRetryDelay is the first backoff step used by RetryTransient when
// baseDelay is not positive.
const DefaultRetryDelay = 300 * time.Millisecond

// RetryTransient calls fn up to 1+maxRetries times with exponential backoff
// starting at baseDelay. Only server and timeout errors are retried.
// Rate-limit errors are returned immediately so the caller can apply its
// own policy. Cancellation of ctx stops the loop.
func RetryTransient(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(ctx context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = DefaultRetryDelay
	}

	var last error
	for i := 0; i <= maxRetries; i++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		last = err
		if IsRateLimitError(err) || !(IsServerError(err) || IsTimeoutError(err)) {
			return err
		}
		if ctx.Err() != nil || i == maxRetries {
			break
		}

		timer := time.NewTimer(baseDelay * time.Duration(1<<i))
		select {
		case <-ctx.Done():
			timer.Stop()
			return last
		case <-timer.C:
		}
	}
	return last
}
