// Package timeout derives per-operation-class timeouts from observed
// latencies.
//
// Each class (e.g. "search", "synthesis") keeps a bounded history of
// latencies. Its timeout is the 95th percentile of recent successful
// durations plus a safety buffer, clamped to the class bounds. Classes
// without successful history use their base timeout.
package timeout

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"
)

// Config controls a Controller.
type Config struct {
	// Base is the timeout used before any successful history exists.
	// Default: 15s
	Base time.Duration `yaml:"base"`

	// Min and Max clamp computed timeouts. Defaults: 2s, 60s
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`

	// Adaptive enables history-based timeouts. When false every class
	// uses its base timeout. Default: true
	Adaptive bool `yaml:"adaptive"`

	// HistorySize is the per-class latency history capacity. Default: 100
	HistorySize int `yaml:"history_size"`

	// RecomputeEvery is how many records pass between recomputations.
	// Default: 10
	RecomputeEvery int `yaml:"recompute_every"`

	// MinBuffer is the smallest margin added to the 95th percentile.
	// Default: 2s
	MinBuffer time.Duration `yaml:"min_buffer"`

	// Tolerance is how close to its limit a failure must be to count as
	// a timeout. Default: 100ms
	Tolerance time.Duration `yaml:"tolerance"`
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() Config {
	return Config{
		Base:           15 * time.Second,
		Min:            2 * time.Second,
		Max:            60 * time.Second,
		Adaptive:       true,
		HistorySize:    100,
		RecomputeEvery: 10,
		MinBuffer:      2 * time.Second,
		Tolerance:      100 * time.Millisecond,
	}
}

// Bounds overrides Base, Min and Max for one class. Zero fields inherit
// the controller configuration.
type Bounds struct {
	Base time.Duration `yaml:"base"`
	Min  time.Duration `yaml:"min"`
	Max  time.Duration `yaml:"max"`
}

// ErrInvalidBounds is returned when Min <= Base <= Max does not hold.
var ErrInvalidBounds = errors.New("timeout bounds must satisfy min <= base <= max")

type classState struct {
	history   *history
	current   time.Duration
	computed  bool
	records   int64
	successes int64
	failures  int64
	timeouts  int64
}

// Controller hands out adaptive timeouts per operation class.
type Controller struct {
	cfg    Config
	bounds map[string]Bounds
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	classes map[string]*classState
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClassBounds overrides the bounds of one class.
func WithClassBounds(class string, b Bounds) Option {
	return func(c *Controller) {
		c.bounds[class] = b
	}
}

// New creates a Controller. Zero-valued numeric config fields take their
// defaults.
func New(cfg Config, opts ...Option) (*Controller, error) {
	defaults := DefaultConfig()
	if cfg.Base <= 0 {
		cfg.Base = defaults.Base
	}
	if cfg.Min <= 0 {
		cfg.Min = defaults.Min
	}
	if cfg.Max <= 0 {
		cfg.Max = defaults.Max
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = defaults.HistorySize
	}
	if cfg.RecomputeEvery <= 0 {
		cfg.RecomputeEvery = defaults.RecomputeEvery
	}
	if cfg.MinBuffer <= 0 {
		cfg.MinBuffer = defaults.MinBuffer
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = defaults.Tolerance
	}

	c := &Controller{
		cfg:     cfg,
		bounds:  make(map[string]Bounds),
		logger:  slog.Default(),
		now:     time.Now,
		classes: make(map[string]*classState),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "timeouts")

	if err := checkBounds("default", c.cfg.Base, c.cfg.Min, c.cfg.Max); err != nil {
		return nil, err
	}
	for class := range c.bounds {
		b := c.boundsFor(class)
		if err := checkBounds(class, b.Base, b.Min, b.Max); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func checkBounds(class string, base, lo, hi time.Duration) error {
	if lo > base || base > hi {
		return fmt.Errorf("%w: class %s (min %s, base %s, max %s)", ErrInvalidBounds, class, lo, base, hi)
	}
	return nil
}

func (c *Controller) boundsFor(class string) Bounds {
	b := Bounds{Base: c.cfg.Base, Min: c.cfg.Min, Max: c.cfg.Max}
	if o, ok := c.bounds[class]; ok {
		if o.Base > 0 {
			b.Base = o.Base
		}
		if o.Min > 0 {
			b.Min = o.Min
		}
		if o.Max > 0 {
			b.Max = o.Max
		}
	}
	return b
}

func (c *Controller) state(class string) *classState {
	st, ok := c.classes[class]
	if !ok {
		st = &classState{history: newHistory(c.cfg.HistorySize)}
		c.classes[class] = st
	}
	return st
}

// Timeout returns the current timeout for class.
func (c *Controller) Timeout(class string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cfg.Adaptive {
		return c.boundsFor(class).Base
	}
	if st, ok := c.classes[class]; ok && st.computed {
		return st.current
	}
	return c.boundsFor(class).Base
}

// Record adds an observation for class. The class timeout is recomputed on
// the first record and on every RecomputeEvery-th one after.
func (c *Controller) Record(class string, d time.Duration, success, timedOut bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state(class)
	st.history.add(Record{
		Class:     class,
		Duration:  d,
		Success:   success,
		TimedOut:  timedOut,
		Timestamp: c.now(),
	})
	st.records++
	switch {
	case success:
		st.successes++
	case timedOut:
		st.failures++
		st.timeouts++
	default:
		st.failures++
	}

	if st.records == 1 || st.records%int64(c.cfg.RecomputeEvery) == 0 {
		previous := st.current
		st.current = c.compute(class, st.history.successDurations())
		st.computed = true
		if previous != st.current {
			c.logger.Debug("timeout recomputed", "class", class, "timeout", st.current, "previous", previous)
		}
	}
}

// compute derives a timeout from successful durations.
func (c *Controller) compute(class string, durations []time.Duration) time.Duration {
	b := c.boundsFor(class)
	if len(durations) == 0 {
		return b.Base
	}
	p95, avg := summarize(durations)
	buffer := max(avg/2, c.cfg.MinBuffer)
	return min(max(p95+buffer, b.Min), b.Max)
}

// summarize returns the nearest-rank 95th percentile and the mean.
func summarize(durations []time.Duration) (p95, avg time.Duration) {
	if len(durations) == 0 {
		return 0, 0
	}
	sorted := slices.Clone(durations)
	slices.Sort(sorted)

	rank := int(math.Ceil(0.95*float64(len(sorted)))) - 1
	rank = max(rank, 0)

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	return sorted[rank], total / time.Duration(len(sorted))
}

// Reset discards all history.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.classes)
}
