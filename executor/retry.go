package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/copilot/core"
)

// retryLinear retries an operation with linear backoff.
// maxAttempts: maximum number of attempts (must be > 0)
// delay: base delay; the wait after attempt n is delay*n
// Errors that core.IsRetryable rejects end the loop immediately.
// Returns the number of attempts made and the error from the last one.
func retryLinear(ctx context.Context, logger *slog.Logger, maxAttempts int, delay time.Duration, operation func(attempt int) error) (int, error) {
	if maxAttempts <= 0 {
		return 0, ErrInvalidMaxAttempts
	}

	var lastErr error
	attempt := 0
	for attempt < maxAttempts {
		if err := ctx.Err(); err != nil {
			return attempt, err
		}

		attempt++
		lastErr = operation(attempt)
		if lastErr == nil {
			if attempt > 1 {
				logger.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return attempt, nil
		}

		if attempt == maxAttempts || !core.IsRetryable(lastErr) {
			break
		}

		logger.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "err", lastErr)

		timer := time.NewTimer(delay * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}

	return attempt, lastErr
}
