package executor

import (
	"context"
	"time"
)

// Priority orders tasks in RunBatched. Higher runs first.
type Priority int

const (
	PriorityLow    Priority = -1
	PriorityNormal Priority = 0
	PriorityHigh   Priority = 1
)

// Task is a unit of work producing a T.
type Task[T any] struct {
	ID       string
	Run      func(ctx context.Context) (T, error)
	Priority Priority

	// Timeout overrides Config.TaskTimeout for each attempt when > 0.
	Timeout time.Duration
}

// Result is the outcome of a single task.
type Result[T any] struct {
	ID       string
	Value    T
	Err      error
	Duration time.Duration // Wall time across all attempts
	Attempts int
}

// OK reports whether the task succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}
