package cache

import "time"

// Stats is a snapshot of cache state.
type Stats struct {
	Name        string        `json:"name"`
	Size        int           `json:"size"`
	Capacity    int           `json:"capacity"`
	Hits        int64         `json:"hits"`
	Misses      int64         `json:"misses"`
	HitRate     float64       `json:"hit_rate"`
	Evictions   int64         `json:"evictions"`
	Expirations int64         `json:"expirations"`
	AvgAge      time.Duration `json:"avg_age"`
	ApproxBytes int64         `json:"approx_bytes"` // Zero without a sizer
}

// Stats returns a snapshot of the cache.
func (c *Cache[V]) Stats() Stats {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Name:        c.name,
		Size:        c.lru.Len(),
		Capacity:    c.cfg.MaxSize,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}

	var totalAge time.Duration
	for _, e := range c.lru.Values() {
		totalAge += now.Sub(e.createdAt)
		if c.sizer != nil {
			s.ApproxBytes += int64(c.sizer(e.value))
		}
	}
	if s.Size > 0 {
		s.AvgAge = totalAge / time.Duration(s.Size)
	}
	return s
}
