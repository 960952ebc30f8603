package executor

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// RunAll runs every task and returns their values in input order.
// The first failure cancels the remaining tasks and is returned.
func RunAll[T any](ctx context.Context, e *Executor, tasks []Task[T]) ([]T, error) {
	values := make([]T, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	for i, task := range tasks {
		g.Go(func() error {
			res := runOnPool(gctx, e, task)
			if res.Err != nil {
				return fmt.Errorf("task %s: %w", task.ID, res.Err)
			}
			values[i] = res.Value
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}

// RunBestEffort runs every task and returns one Result per task in input
// order. A failing task never affects the others.
func RunBestEffort[T any](ctx context.Context, e *Executor, tasks []Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		err := e.submit(func() {
			defer wg.Done()
			results[i] = runTask(ctx, e, task)
		})
		if err != nil {
			wg.Done()
			results[i] = Result[T]{ID: task.ID, Err: err}
		}
	}
	wg.Wait()
	return results
}

// RunBatched orders tasks by priority (high first, stable), splits them
// into groups of batchSize and runs the groups one after another, each
// best-effort. batchSize <= 0 means the executor capacity. Results are
// returned in input order.
func RunBatched[T any](ctx context.Context, e *Executor, tasks []Task[T], batchSize int) []Result[T] {
	if batchSize <= 0 {
		batchSize = e.Capacity()
	}

	order := make([]int, len(tasks))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return int(tasks[b].Priority) - int(tasks[a].Priority)
	})

	results := make([]Result[T], len(tasks))
	for batch := range slices.Chunk(order, batchSize) {
		group := make([]Task[T], len(batch))
		for j, idx := range batch {
			group[j] = tasks[idx]
		}
		e.logger.Debug("running batch", "size", len(group))
		for j, res := range RunBestEffort(ctx, e, group) {
			results[batch[j]] = res
		}
	}
	return results
}

// RunStream pulls tasks from seq as capacity frees up, holding at most
// Capacity() in flight, and delivers results in completion order. The
// channel closes once every started task has finished. Cancelling ctx stops
// pulling new tasks; results not yet delivered are dropped.
func RunStream[T any](ctx context.Context, e *Executor, seq iter.Seq[Task[T]]) <-chan Result[T] {
	out := make(chan Result[T], e.Capacity())
	limiter := NewLimiter(e.Capacity())

	go func() {
		defer close(out)
		var wg sync.WaitGroup
		deliver := func(res Result[T]) {
			select {
			case out <- res:
			case <-ctx.Done():
			}
		}

		for task := range seq {
			if err := limiter.Acquire(ctx); err != nil {
				break
			}
			wg.Add(1)
			err := e.submit(func() {
				defer wg.Done()
				defer limiter.Release()
				deliver(runTask(ctx, e, task))
			})
			if err != nil {
				limiter.Release()
				wg.Done()
				deliver(Result[T]{ID: task.ID, Err: err})
			}
		}
		wg.Wait()
	}()

	return out
}
