package executor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/copilot/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(t *testing.T, cfg Config) *Executor {
	t.Helper()
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Millisecond
	}
	e, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(e.Release)
	return e
}

// concurrencyProbe records the peak number of concurrently running tasks.
type concurrencyProbe struct {
	current atomic.Int32
	peak    atomic.Int32
}

func (p *concurrencyProbe) enter() {
	n := p.current.Add(1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			return
		}
	}
}

func (p *concurrencyProbe) exit() {
	p.current.Add(-1)
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		e, err := New(Config{})
		require.NoError(t, err)
		defer e.Release()

		assert.Equal(t, DefaultConfig(), e.Config())
		assert.Equal(t, 6, e.Capacity())
	})

	t.Run("invalid concurrency", func(t *testing.T) {
		_, err := New(Config{MaxConcurrency: -1})
		assert.ErrorIs(t, err, ErrInvalidConcurrency)
	})

	t.Run("invalid attempts", func(t *testing.T) {
		_, err := New(Config{MaxAttempts: -2})
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})
}

func TestRunBestEffort(t *testing.T) {
	t.Run("one result per task in input order", func(t *testing.T) {
		e := newTestExecutor(t, Config{MaxConcurrency: 3, MaxAttempts: 1})

		tasks := make([]Task[int], 10)
		for i := range tasks {
			tasks[i] = Task[int]{
				ID: fmt.Sprintf("task-%d", i),
				Run: func(ctx context.Context) (int, error) {
					time.Sleep(time.Duration(10-i) * time.Millisecond)
					if i%3 == 0 {
						return 0, errors.New("boom")
					}
					return i * i, nil
				},
			}
		}

		results := RunBestEffort(context.Background(), e, tasks)
		require.Len(t, results, len(tasks))
		for i, res := range results {
			assert.Equal(t, fmt.Sprintf("task-%d", i), res.ID)
			if i%3 == 0 {
				assert.Error(t, res.Err)
				assert.False(t, res.OK())
			} else {
				require.NoError(t, res.Err)
				assert.Equal(t, i*i, res.Value)
			}
		}

		stats := e.Stats()
		assert.Equal(t, int64(10), stats.Submitted)
		assert.Equal(t, int64(6), stats.Succeeded)
		assert.Equal(t, int64(4), stats.Failed)
	})

	t.Run("never exceeds concurrency cap", func(t *testing.T) {
		e := newTestExecutor(t, Config{MaxConcurrency: 2})
		var probe concurrencyProbe

		tasks := make([]Task[struct{}], 12)
		for i := range tasks {
			tasks[i] = Task[struct{}]{
				ID: fmt.Sprint(i),
				Run: func(ctx context.Context) (struct{}, error) {
					probe.enter()
					defer probe.exit()
					time.Sleep(5 * time.Millisecond)
					return struct{}{}, nil
				},
			}
		}

		RunBestEffort(context.Background(), e, tasks)
		assert.LessOrEqual(t, probe.peak.Load(), int32(2))
		assert.Equal(t, int32(2), probe.peak.Load(), "pool should be saturated")
	})

	t.Run("empty input", func(t *testing.T) {
		e := newTestExecutor(t, Config{})
		assert.Empty(t, RunBestEffort[int](context.Background(), e, nil))
	})

	t.Run("released executor", func(t *testing.T) {
		e, err := New(Config{})
		require.NoError(t, err)
		e.Release()

		results := RunBestEffort(context.Background(), e, []Task[int]{{ID: "a", Run: func(context.Context) (int, error) { return 1, nil }}})
		require.Len(t, results, 1)
		assert.ErrorIs(t, results[0].Err, ErrExecutorClosed)
	})
}

func TestRetries(t *testing.T) {
	t.Run("transient failure is retried", func(t *testing.T) {
		e := newTestExecutor(t, Config{MaxAttempts: 2})
		var calls atomic.Int32

		results := RunBestEffort(context.Background(), e, []Task[string]{{
			ID: "flaky",
			Run: func(ctx context.Context) (string, error) {
				if calls.Add(1) == 1 {
					return "", core.Upstream("search", nil, "temporary")
				}
				return "ok", nil
			},
		}})

		require.NoError(t, results[0].Err)
		assert.Equal(t, "ok", results[0].Value)
		assert.Equal(t, 2, results[0].Attempts)
		assert.Equal(t, int64(1), e.Stats().Retries)
	})

	t.Run("exhausted retries report last error", func(t *testing.T) {
		e := newTestExecutor(t, Config{MaxAttempts: 3})
		var calls atomic.Int32

		results := RunBestEffort(context.Background(), e, []Task[string]{{
			ID: "broken",
			Run: func(ctx context.Context) (string, error) {
				return "", fmt.Errorf("failure %d", calls.Add(1))
			},
		}})

		assert.EqualError(t, results[0].Err, "failure 3")
		assert.Equal(t, 3, results[0].Attempts)
	})

	t.Run("validation errors are not retried", func(t *testing.T) {
		e := newTestExecutor(t, Config{MaxAttempts: 3})

		results := RunBestEffort(context.Background(), e, []Task[string]{{
			ID: "invalid",
			Run: func(ctx context.Context) (string, error) {
				return "", core.Validation("query", core.ErrEmptyQuery, "empty")
			},
		}})

		assert.ErrorIs(t, results[0].Err, core.ErrEmptyQuery)
		assert.Equal(t, 1, results[0].Attempts)
	})
}

func TestTaskTimeout(t *testing.T) {
	t.Run("attempt exceeding timeout", func(t *testing.T) {
		e := newTestExecutor(t, Config{MaxAttempts: 1, TaskTimeout: 20 * time.Millisecond})

		start := time.Now()
		results := RunBestEffort(context.Background(), e, []Task[int]{{
			ID: "slow",
			Run: func(ctx context.Context) (int, error) {
				time.Sleep(500 * time.Millisecond)
				return 1, nil
			},
		}})

		assert.Less(t, time.Since(start), 400*time.Millisecond, "should not wait for the work")
		assert.ErrorIs(t, results[0].Err, core.ErrTimeout)
		assert.Equal(t, int64(1), e.Stats().TimedOut)
	})

	t.Run("task timeout overrides config", func(t *testing.T) {
		e := newTestExecutor(t, Config{MaxAttempts: 1, TaskTimeout: time.Hour})

		results := RunBestEffort(context.Background(), e, []Task[int]{{
			ID:      "slow",
			Timeout: 10 * time.Millisecond,
			Run: func(ctx context.Context) (int, error) {
				<-ctx.Done()
				return 0, ctx.Err()
			},
		}})

		assert.Equal(t, core.KindTimeout, core.KindOf(results[0].Err))
	})

	t.Run("panic becomes internal error", func(t *testing.T) {
		e := newTestExecutor(t, Config{MaxAttempts: 3})

		results := RunBestEffort(context.Background(), e, []Task[int]{{
			ID:  "panicky",
			Run: func(ctx context.Context) (int, error) { panic("oops") },
		}})

		assert.Equal(t, core.KindInternal, core.KindOf(results[0].Err))
		assert.Equal(t, 1, results[0].Attempts)
	})
}

func TestRunAll(t *testing.T) {
	t.Run("values in input order", func(t *testing.T) {
		e := newTestExecutor(t, Config{MaxConcurrency: 4})

		tasks := make([]Task[string], 8)
		for i := range tasks {
			tasks[i] = Task[string]{
				ID: fmt.Sprint(i),
				Run: func(ctx context.Context) (string, error) {
					return fmt.Sprintf("v%d", i), nil
				},
			}
		}

		values, err := RunAll(context.Background(), e, tasks)
		require.NoError(t, err)
		assert.Equal(t, []string{"v0", "v1", "v2", "v3", "v4", "v5", "v6", "v7"}, values)
	})

	t.Run("first failure cancels the rest", func(t *testing.T) {
		e := newTestExecutor(t, Config{MaxConcurrency: 4, MaxAttempts: 1})
		var canceled atomic.Bool

		tasks := []Task[int]{
			{ID: "fails", Run: func(ctx context.Context) (int, error) {
				time.Sleep(10 * time.Millisecond)
				return 0, core.Validation("task", nil, "bad")
			}},
			{ID: "waits", Run: func(ctx context.Context) (int, error) {
				select {
				case <-ctx.Done():
					canceled.Store(true)
					return 0, ctx.Err()
				case <-time.After(5 * time.Second):
					return 1, nil
				}
			}},
		}

		start := time.Now()
		values, err := RunAll(context.Background(), e, tasks)
		assert.Nil(t, values)
		assert.ErrorIs(t, err, core.ErrValidation)
		assert.Contains(t, err.Error(), "task fails")
		assert.Less(t, time.Since(start), 2*time.Second)
		assert.Eventually(t, canceled.Load, time.Second, 5*time.Millisecond)
	})
}

func TestRunBatched(t *testing.T) {
	e := newTestExecutor(t, Config{MaxConcurrency: 1})

	var mu sync.Mutex
	var order []string
	task := func(id string, p Priority) Task[string] {
		return Task[string]{
			ID:       id,
			Priority: p,
			Run: func(ctx context.Context) (string, error) {
				mu.Lock()
				order = append(order, id)
				mu.Unlock()
				return id + "!", nil
			},
		}
	}

	tasks := []Task[string]{
		task("low", PriorityLow),
		task("normal-1", PriorityNormal),
		task("high", PriorityHigh),
		task("normal-2", PriorityNormal),
	}

	results := RunBatched(context.Background(), e, tasks, 1)
	require.Len(t, results, 4)
	assert.Equal(t, []string{"high", "normal-1", "normal-2", "low"}, order)
	for i, res := range results {
		assert.Equal(t, tasks[i].ID, res.ID, "results follow input order")
		assert.Equal(t, tasks[i].ID+"!", res.Value)
	}
}

func TestRunStream(t *testing.T) {
	e := newTestExecutor(t, Config{MaxConcurrency: 3})
	var probe concurrencyProbe

	seq := func(yield func(Task[int]) bool) {
		for i := range 10 {
			task := Task[int]{
				ID: fmt.Sprint(i),
				Run: func(ctx context.Context) (int, error) {
					probe.enter()
					defer probe.exit()
					time.Sleep(2 * time.Millisecond)
					return i, nil
				},
			}
			if !yield(task) {
				return
			}
		}
	}

	var values []int
	for res := range RunStream(context.Background(), e, seq) {
		require.NoError(t, res.Err)
		values = append(values, res.Value)
	}

	slices.Sort(values)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, values)
	assert.LessOrEqual(t, probe.peak.Load(), int32(3))
}

func TestResetStats(t *testing.T) {
	e := newTestExecutor(t, Config{})
	RunBestEffort(context.Background(), e, []Task[int]{{ID: "a", Run: func(context.Context) (int, error) { return 1, nil }}})
	require.Equal(t, int64(1), e.Stats().Succeeded)

	e.ResetStats()
	stats := e.Stats()
	assert.Zero(t, stats.Submitted)
	assert.Zero(t, stats.Succeeded)
	assert.Equal(t, 6, stats.Capacity)
}

func TestLimiter(t *testing.T) {
	l := NewLimiter(2)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	require.True(t, l.TryAcquire())
	assert.False(t, l.TryAcquire())
	assert.Equal(t, 2, l.InUse())

	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Acquire(timeoutCtx), context.DeadlineExceeded)

	acquired := make(chan struct{})
	go func() {
		_ = l.Acquire(ctx)
		close(acquired)
	}()
	assert.Eventually(t, func() bool { return l.Waiting() == 1 }, time.Second, time.Millisecond)

	l.Release()
	<-acquired
	assert.Equal(t, 2, l.InUse())
	assert.Equal(t, 2, l.Size())
}
