package executor

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Limiter is a counting semaphore. Waiters are served in FIFO order.
type Limiter struct {
	sem     *semaphore.Weighted
	size    int
	held    atomic.Int64
	waiting atomic.Int64
}

// NewLimiter creates a limiter with n permits (minimum 1).
func NewLimiter(n int) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{
		sem:  semaphore.NewWeighted(int64(n)),
		size: n,
	}
}

// Acquire blocks until a permit is available or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.waiting.Add(1)
	err := l.sem.Acquire(ctx, 1)
	l.waiting.Add(-1)
	if err != nil {
		return err
	}
	l.held.Add(1)
	return nil
}

// TryAcquire takes a permit without blocking.
func (l *Limiter) TryAcquire() bool {
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.held.Add(1)
	return true
}

// Release returns a permit.
func (l *Limiter) Release() {
	l.held.Add(-1)
	l.sem.Release(1)
}

// Size returns the number of permits.
func (l *Limiter) Size() int {
	return l.size
}

// InUse returns the number of permits currently held.
func (l *Limiter) InUse() int {
	return int(l.held.Load())
}

// Waiting returns the number of callers blocked in Acquire.
func (l *Limiter) Waiting() int {
	return int(l.waiting.Load())
}
