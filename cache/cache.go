// Package cache provides a size-bounded, TTL-expiring result cache.
//
// Entries are kept in least-recently-used order; inserting into a full
// cache evicts the least recently used entry. Expired entries are never
// returned: Get removes them eagerly and a background janitor sweeps the
// rest periodically.
package cache

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Config controls a Cache.
type Config struct {
	// MaxSize is the maximum number of entries. Default: 100
	MaxSize int `yaml:"max_size"`

	// TTL is the default entry lifetime. Default: 15m
	TTL time.Duration `yaml:"ttl"`

	// CleanupInterval is the janitor period. Zero means the default (5m);
	// negative disables the janitor.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		MaxSize:         100,
		TTL:             15 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// ErrInvalidSize is returned when MaxSize is negative.
var ErrInvalidSize = errors.New("cache size must be positive")

type entry[V any] struct {
	value     V
	createdAt time.Time
	expiresAt time.Time
	hits      int64
}

func (e *entry[V]) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Cache is a TTL/LRU cache safe for concurrent use.
type Cache[V any] struct {
	name   string
	cfg    Config
	lru    *lru.Cache[string, *entry[V]]
	now    func() time.Time
	sizer  func(V) int
	logger *slog.Logger

	// mu makes lookup, expiry check and removal atomic.
	mu          sync.Mutex
	hits        int64
	misses      int64
	evictions   int64
	expirations int64

	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithClock replaces time.Now.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSizer sets the function used to approximate memory usage in Stats.
func WithSizer[V any](sizer func(V) int) Option[V] {
	return func(c *Cache[V]) {
		c.sizer = sizer
	}
}

// WithLogger sets a custom logger.
func WithLogger[V any](logger *slog.Logger) Option[V] {
	return func(c *Cache[V]) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a cache and starts its janitor. Zero-valued config fields
// take their defaults.
func New[V any](name string, cfg Config, opts ...Option[V]) (*Cache[V], error) {
	defaults := DefaultConfig()
	if cfg.MaxSize < 0 {
		return nil, ErrInvalidSize
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = defaults.MaxSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaults.TTL
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = defaults.CleanupInterval
	}

	store, err := lru.New[string, *entry[V]](cfg.MaxSize)
	if err != nil {
		return nil, err
	}

	c := &Cache[V]{
		name:   name,
		cfg:    cfg,
		lru:    store,
		now:    time.Now,
		logger: slog.Default(),
		stop:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "cache", "cache", name)

	if cfg.CleanupInterval > 0 {
		c.wg.Add(1)
		go c.janitor(cfg.CleanupInterval)
	}
	return c, nil
}

// Name returns the cache name.
func (c *Cache[V]) Name() string {
	return c.name
}

// Set stores value under key. ttl <= 0 uses the configured TTL.
// Inserting into a full cache evicts the least recently used entry.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.cfg.TTL
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	if evicted := c.lru.Add(key, &entry[V]{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}); evicted {
		c.evictions++
	}
}

// Get returns the value for key and marks it most recently used.
// Expired entries are removed and reported absent.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key)
	if !ok {
		c.misses++
		return zero, false
	}
	if e.expired(now) {
		c.lru.Remove(key)
		c.expirations++
		c.misses++
		return zero, false
	}
	e.hits++
	c.hits++
	return e.value, true
}

// Has reports whether key holds an unexpired value without affecting
// recency or hit counters.
func (c *Cache[V]) Has(key string) bool {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Peek(key)
	if !ok {
		return false
	}
	if e.expired(now) {
		c.lru.Remove(key)
		c.expirations++
		return false
	}
	return true
}

// Delete removes key and reports whether it was present.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Remove(key)
}

// Clear removes every entry and resets the counters.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.hits, c.misses, c.evictions, c.expirations = 0, 0, 0, 0
}

// Cleanup removes expired entries and returns how many were removed.
func (c *Cache[V]) Cleanup() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, key := range c.lru.Keys() {
		if e, ok := c.lru.Peek(key); ok && e.expired(now) {
			c.lru.Remove(key)
			removed++
		}
	}
	c.expirations += int64(removed)
	return removed
}

func (c *Cache[V]) janitor(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if n := c.Cleanup(); n > 0 {
				c.logger.Debug("removed expired entries", "count", n)
			}
		}
	}
}

// Close stops the janitor. The cache remains usable.
func (c *Cache[V]) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
		c.wg.Wait()
	})
}
