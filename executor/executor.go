package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/copilot/core"
)

// Config controls an Executor.
type Config struct {
	// MaxConcurrency is the worker pool size. Default: 6
	MaxConcurrency int `yaml:"max_concurrency"`

	// MaxAttempts is the number of attempts per task, including the first.
	// Default: 2
	MaxAttempts int `yaml:"max_attempts"`

	// RetryDelay is the base of the linear backoff between attempts.
	// Default: 250ms
	RetryDelay time.Duration `yaml:"retry_delay"`

	// TaskTimeout bounds each attempt of tasks without their own timeout.
	// Default: 60s
	TaskTimeout time.Duration `yaml:"task_timeout"`
}

// DefaultConfig returns the default executor configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 6,
		MaxAttempts:    2,
		RetryDelay:     250 * time.Millisecond,
		TaskTimeout:    60 * time.Second,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxConcurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if c.RetryDelay < 0 || c.TaskTimeout < 0 {
		return errors.New("executor: negative duration in config")
	}
	return nil
}

// Executor runs tasks on a bounded worker pool.
type Executor struct {
	cfg    Config
	pool   *ants.Pool
	logger *slog.Logger

	submitted atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	timedOut  atomic.Int64
	retries   atomic.Int64
}

// Option configures an Executor.
type Option func(*Executor) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// New creates an Executor. Zero-valued config fields take their defaults.
func New(cfg Config, opts ...Option) (*Executor, error) {
	defaults := DefaultConfig()
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = defaults.MaxConcurrency
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaults.RetryDelay
	}
	if cfg.TaskTimeout == 0 {
		cfg.TaskTimeout = defaults.TaskTimeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Executor{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "executor")

	pool, err := ants.NewPool(cfg.MaxConcurrency,
		ants.WithLogger(&antsLoggerAdapter{logger: e.logger}),
		ants.WithPanicHandler(func(p any) {
			e.logger.Error("worker panic", "panic", p)
		}),
	)
	if err != nil {
		return nil, err
	}
	e.pool = pool
	return e, nil
}

// Config returns the effective configuration.
func (e *Executor) Config() Config {
	return e.cfg
}

// Capacity returns the number of tasks that can run at once.
func (e *Executor) Capacity() int {
	return e.pool.Cap()
}

// Release stops the worker pool. Tasks submitted afterwards fail with
// ErrExecutorClosed.
func (e *Executor) Release() {
	e.pool.Release()
}

// submit hands fn to the pool, blocking while all workers are busy.
func (e *Executor) submit(fn func()) error {
	if err := e.pool.Submit(fn); err != nil {
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrExecutorClosed
		}
		return core.Internal("executor", err, "submit: %v", err)
	}
	return nil
}

// antsLoggerAdapter adapts slog.Logger to the ants.Logger interface.
type antsLoggerAdapter struct {
	logger *slog.Logger
}

var _ ants.Logger = (*antsLoggerAdapter)(nil)

func (al *antsLoggerAdapter) Printf(format string, args ...any) {
	al.logger.Warn(fmt.Sprintf(format, args...))
}

type outcome[T any] struct {
	value T
	err   error
}

// runTask executes task with retries on the calling goroutine.
func runTask[T any](ctx context.Context, e *Executor, task Task[T]) Result[T] {
	e.submitted.Add(1)
	start := time.Now()

	limit := task.Timeout
	if limit <= 0 {
		limit = e.cfg.TaskTimeout
	}

	var value T
	attempts, err := retryLinear(ctx, e.logger, e.cfg.MaxAttempts, e.cfg.RetryDelay, func(attempt int) error {
		if attempt > 1 {
			e.retries.Add(1)
		}
		v, err := attemptTask(ctx, task, limit)
		if err != nil {
			if core.KindOf(err) == core.KindTimeout {
				e.timedOut.Add(1)
			}
			return err
		}
		value = v
		return nil
	})

	res := Result[T]{
		ID:       task.ID,
		Err:      err,
		Duration: time.Since(start),
		Attempts: attempts,
	}
	if err != nil {
		e.failed.Add(1)
		e.logger.Debug("task failed", "task", task.ID, "attempts", attempts, "err", err)
	} else {
		e.succeeded.Add(1)
		res.Value = value
	}
	return res
}

// attemptTask races one attempt against limit. The work keeps running in
// its own goroutine if the limit expires first.
func attemptTask[T any](ctx context.Context, task Task[T], limit time.Duration) (T, error) {
	actx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	done := make(chan outcome[T], 1)
	go func() {
		v, err := safeRun(actx, task)
		done <- outcome[T]{value: v, err: err}
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-actx.Done():
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, core.Timeout("task", "task %q timed out after %s", task.ID, limit)
	}
}

func safeRun[T any](ctx context.Context, task Task[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.Internal("task", nil, "task %q panicked: %v", task.ID, r)
		}
	}()
	return task.Run(ctx)
}

// runOnPool runs task on a pool worker and waits for its result.
func runOnPool[T any](ctx context.Context, e *Executor, task Task[T]) Result[T] {
	done := make(chan Result[T], 1)
	if err := e.submit(func() { done <- runTask(ctx, e, task) }); err != nil {
		return Result[T]{ID: task.ID, Err: err}
	}
	return <-done
}
