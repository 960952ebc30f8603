package timeout

import (
	"context"
	"time"

	"github.com/poiesic/copilot/core"
)

// DefaultProgressiveSteps are the limits RunProgressive tries in order.
var DefaultProgressiveSteps = []time.Duration{5 * time.Second, 15 * time.Second, 30 * time.Second}

type outcome[T any] struct {
	value T
	err   error
}

// Run races op against the class timeout, or override when > 0, and
// records the outcome. On timeout op keeps running in the background with
// a cancelled context and a core.KindTimeout error is returned.
// Outcomes caused by the caller's own cancellation are not recorded.
func Run[T any](ctx context.Context, c *Controller, class string, op func(ctx context.Context) (T, error), override time.Duration) (T, error) {
	var zero T
	limit := override
	if limit <= 0 {
		limit = c.Timeout(class)
	}

	actx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	start := time.Now()
	done := make(chan outcome[T], 1)
	go func() {
		v, err := op(actx)
		done <- outcome[T]{value: v, err: err}
	}()

	select {
	case o := <-done:
		elapsed := time.Since(start)
		if o.err == nil {
			c.Record(class, elapsed, true, false)
			return o.value, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if c.IsTimeout(o.err, elapsed, limit) {
			c.Record(class, elapsed, false, true)
			return zero, core.Timeout(class, "%s exceeded %s", class, limit)
		}
		c.Record(class, elapsed, false, false)
		return zero, o.err
	case <-actx.Done():
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		c.Record(class, limit, false, true)
		c.logger.Debug("operation timed out", "class", class, "limit", limit)
		return zero, core.Timeout(class, "%s exceeded %s", class, limit)
	}
}

// RunProgressive retries op against increasing fixed limits. Only
// timeouts move on to the next step; any other error is returned at once.
// Empty steps means DefaultProgressiveSteps.
func RunProgressive[T any](ctx context.Context, c *Controller, class string, op func(ctx context.Context) (T, error), steps []time.Duration) (T, error) {
	if len(steps) == 0 {
		steps = DefaultProgressiveSteps
	}

	var zero T
	var lastErr error
	for i, step := range steps {
		v, err := Run(ctx, c, class, op, step)
		if err == nil {
			return v, nil
		}
		if core.KindOf(err) != core.KindTimeout {
			return zero, err
		}
		lastErr = err
		c.logger.Debug("progressive step timed out", "class", class, "step", i+1, "limit", step)
	}
	return zero, lastErr
}

// IsTimeout reports whether err represents a timeout: a core.KindTimeout
// error, or any failure whose elapsed time is within Tolerance of limit.
func (c *Controller) IsTimeout(err error, elapsed, limit time.Duration) bool {
	if err == nil {
		return false
	}
	if core.KindOf(err) == core.KindTimeout {
		return true
	}
	return limit > 0 && elapsed >= limit-c.cfg.Tolerance
}
