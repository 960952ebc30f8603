package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, cfg Config, clock *fakeClock) *Cache[string] {
	t.Helper()
	cfg.CleanupInterval = -1
	c, err := New("test", cfg, WithClock[string](clock.Now), WithSizer(func(s string) int { return len(s) }))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := New[int]("answers", Config{})
		require.NoError(t, err)
		defer c.Close()

		assert.Equal(t, DefaultConfig(), c.cfg)
		assert.Equal(t, "answers", c.Name())
	})

	t.Run("negative size", func(t *testing.T) {
		_, err := New[int]("bad", Config{MaxSize: -1})
		assert.ErrorIs(t, err, ErrInvalidSize)
	})
}

func TestExpiryBoundary(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, Config{MaxSize: 10, TTL: time.Minute}, clock)

	c.Set("k", "v", 0)

	clock.Advance(time.Minute - time.Nanosecond)
	v, ok := c.Get("k")
	require.True(t, ok, "entry is valid until its expiry instant")
	assert.Equal(t, "v", v)

	clock.Advance(time.Nanosecond)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry is never returned at or past expiry")

	stats := c.Stats()
	assert.Zero(t, stats.Size, "expired entry is removed eagerly")
	assert.Equal(t, int64(1), stats.Expirations)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestPerEntryTTL(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, Config{MaxSize: 10, TTL: time.Hour}, clock)

	c.Set("short", "a", time.Second)
	c.Set("long", "b", 0)

	clock.Advance(2 * time.Second)
	assert.False(t, c.Has("short"))
	assert.True(t, c.Has("long"))
}

func TestLRUEviction(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, Config{MaxSize: 2, TTL: time.Hour}, clock)

	c.Set("a", "1", 0)
	c.Set("b", "2", 0)

	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", "3", 0)

	assert.True(t, c.Has("a"), "recently read entry survives")
	assert.False(t, c.Has("b"), "least recently used entry is evicted")
	assert.True(t, c.Has("c"))
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestHasDoesNotTouchRecency(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, Config{MaxSize: 2, TTL: time.Hour}, clock)

	c.Set("a", "1", 0)
	c.Set("b", "2", 0)
	require.True(t, c.Has("a"))

	c.Set("c", "3", 0)
	assert.False(t, c.Has("a"))
	assert.Zero(t, c.Stats().Hits)
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, Config{MaxSize: 2, TTL: time.Hour}, clock)

	c.Set("a", "1", 0)
	c.Set("b", "2", 0)
	c.Set("a", "updated", 0)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "updated", v)
	assert.True(t, c.Has("b"))
	assert.Zero(t, c.Stats().Evictions)
}

func TestDeleteAndClear(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, Config{MaxSize: 10, TTL: time.Hour}, clock)

	c.Set("a", "1", 0)
	c.Set("b", "2", 0)
	c.Get("a")

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))
	assert.Equal(t, 1, c.Stats().Size)

	c.Clear()
	stats := c.Stats()
	assert.Zero(t, stats.Size)
	assert.Zero(t, stats.Hits)
}

func TestCleanup(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, Config{MaxSize: 10, TTL: time.Minute}, clock)

	c.Set("a", "1", 0)
	c.Set("b", "2", 0)
	c.Set("c", "3", time.Hour)

	assert.Equal(t, 0, c.Cleanup())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 2, c.Cleanup())
	assert.Equal(t, 1, c.Stats().Size)
	assert.Equal(t, int64(2), c.Stats().Expirations)
}

func TestStats(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, Config{MaxSize: 10, TTL: time.Hour}, clock)

	c.Set("a", "1234", 0)
	clock.Advance(10 * time.Second)
	c.Set("b", "12", 0)
	clock.Advance(10 * time.Second)

	c.Get("a")
	c.Get("a")
	c.Get("b")
	c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, "test", stats.Name)
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, 10, stats.Capacity)
	assert.Equal(t, int64(3), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.75, stats.HitRate, 1e-9)
	assert.Equal(t, 15*time.Second, stats.AvgAge)
	assert.Equal(t, int64(6), stats.ApproxBytes)
}

func TestJanitor(t *testing.T) {
	clock := newFakeClock()
	c, err := New("janitor", Config{MaxSize: 10, TTL: time.Minute, CleanupInterval: 5 * time.Millisecond},
		WithClock[string](clock.Now))
	require.NoError(t, err)
	defer c.Close()

	c.Set("a", "1", 0)
	clock.Advance(time.Hour)

	assert.Eventually(t, func() bool { return c.Stats().Size == 0 }, time.Second, 5*time.Millisecond)
}

func TestConcurrentAccess(t *testing.T) {
	c, err := New[int]("concurrent", Config{MaxSize: 50, CleanupInterval: -1})
	require.NoError(t, err)
	defer c.Close()

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				key := string(rune('a' + (g*i)%26))
				c.Set(key, i, 0)
				c.Get(key)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Stats().Size, 50)
}
