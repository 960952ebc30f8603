// Package dedup collapses concurrent identical requests into a single
// execution.
//
// Callers of Do sharing a key while an operation is in flight receive that
// operation's result instead of starting their own. Operations run on a
// context detached from the first caller's cancellation, so an abandoned
// operation still completes and can populate caches; each caller stops
// waiting when its own context ends. Entries older than MaxPendingAge are
// treated as stuck: the next caller starts a fresh operation.
package dedup

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poiesic/copilot/core"
	"golang.org/x/sync/singleflight"
)

// Config controls a Deduplicator.
type Config struct {
	// MaxPendingAge is how long an in-flight operation may be joined.
	// Default: 30s
	MaxPendingAge time.Duration `yaml:"max_pending_age"`

	// SweepInterval is the period of the background stale-entry sweep.
	// Zero means the default (10s); negative disables the sweeper.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// DefaultConfig returns the default deduplicator configuration.
func DefaultConfig() Config {
	return Config{
		MaxPendingAge: 30 * time.Second,
		SweepInterval: 10 * time.Second,
	}
}

// pendingOp tracks one physical execution.
type pendingOp struct {
	started time.Time
	waiters int
}

// Deduplicator shares in-flight operations between callers.
type Deduplicator struct {
	cfg    Config
	group  singleflight.Group
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	pending map[string]*pendingOp

	calls      atomic.Int64
	executions atomic.Int64
	stale      atomic.Int64

	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Option configures a Deduplicator.
type Option func(*Deduplicator)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deduplicator) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithClock replaces time.Now for age computations.
func WithClock(now func() time.Time) Option {
	return func(d *Deduplicator) {
		if now != nil {
			d.now = now
		}
	}
}

// New creates a Deduplicator and starts its sweeper.
func New(cfg Config, opts ...Option) *Deduplicator {
	defaults := DefaultConfig()
	if cfg.MaxPendingAge <= 0 {
		cfg.MaxPendingAge = defaults.MaxPendingAge
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = defaults.SweepInterval
	}

	d := &Deduplicator{
		cfg:     cfg,
		logger:  slog.Default(),
		now:     time.Now,
		pending: make(map[string]*pendingOp),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "deduplicator")

	if cfg.SweepInterval > 0 {
		d.wg.Add(1)
		go d.sweepLoop(cfg.SweepInterval)
	}
	return d
}

// Do runs op for key, or joins the in-flight execution for key.
// Every caller joined to one execution receives the same value or error.
func Do[T any](ctx context.Context, d *Deduplicator, key string, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	detached := context.WithoutCancel(ctx)
	ch := d.acquire(key, func() (any, error) {
		return op(detached)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, ok := res.Val.(T)
		if !ok && res.Val != nil {
			return zero, core.Internal("dedup", nil, "key %q shared by operations of different result types", key)
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// acquire registers the caller and returns the result channel of the
// execution it is attached to.
func (d *Deduplicator) acquire(key string, fn func() (any, error)) <-chan singleflight.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls.Add(1)
	now := d.now()
	if p, ok := d.pending[key]; ok {
		if now.Sub(p.started) < d.cfg.MaxPendingAge {
			p.waiters++
			return d.group.DoChan(key, d.wrap(key, p, fn))
		}
		d.logger.Warn("abandoning stale operation", "key", key, "age", now.Sub(p.started), "waiters", p.waiters)
		d.group.Forget(key)
		delete(d.pending, key)
		d.stale.Add(1)
	}

	p := &pendingOp{started: now, waiters: 1}
	d.pending[key] = p
	return d.group.DoChan(key, d.wrap(key, p, fn))
}

// wrap counts the execution, turns panics into errors and removes the
// pending entry once the operation settles.
func (d *Deduplicator) wrap(key string, p *pendingOp, fn func() (any, error)) func() (any, error) {
	return func() (v any, err error) {
		d.executions.Add(1)
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("operation panicked", "key", key, "panic", r)
				v, err = nil, core.Internal("dedup", nil, "operation %q panicked: %v", key, r)
			}
			d.settle(key, p)
		}()
		return fn()
	}
}

// settle drops the entry and detaches the key from its singleflight call,
// so a caller arriving before the call returns starts a new execution
// that owns its own entry.
func (d *Deduplicator) settle(key string, p *pendingOp) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending[key] == p {
		d.group.Forget(key)
		delete(d.pending, key)
	}
}

// Sweep removes entries older than MaxPendingAge and returns how many were
// removed. Their operations keep running but can no longer be joined.
func (d *Deduplicator) Sweep() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	removed := 0
	for key, p := range d.pending {
		if now.Sub(p.started) >= d.cfg.MaxPendingAge {
			d.group.Forget(key)
			delete(d.pending, key)
			removed++
		}
	}
	if removed > 0 {
		d.stale.Add(int64(removed))
		d.logger.Debug("swept stale operations", "removed", removed)
	}
	return removed
}

func (d *Deduplicator) sweepLoop(interval time.Duration) {
	defer d.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.Sweep()
		}
	}
}

// Clear forgets every pending entry and returns how many there were.
// In-flight operations complete, but new callers start fresh ones.
func (d *Deduplicator) Clear() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.pending)
	for key := range d.pending {
		d.group.Forget(key)
	}
	clear(d.pending)
	return n
}

// Close stops the background sweeper. Do remains usable.
func (d *Deduplicator) Close() {
	d.closeOnce.Do(func() {
		close(d.stop)
		d.wg.Wait()
	})
}
