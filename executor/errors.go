package executor

import "errors"

var (
	// ErrInvalidConcurrency is returned when MaxConcurrency is less than 1.
	ErrInvalidConcurrency = errors.New("max concurrency must be at least 1")

	// ErrInvalidMaxAttempts is returned when MaxAttempts is less than 1.
	ErrInvalidMaxAttempts = errors.New("max attempts must be at least 1")

	// ErrExecutorClosed is returned for tasks submitted after Release.
	ErrExecutorClosed = errors.New("executor released")
)
