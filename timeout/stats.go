package timeout

import (
	"maps"
	"slices"
	"time"
)

// ClassStats describes one operation class.
type ClassStats struct {
	Class     string        `json:"class"`
	Timeout   time.Duration `json:"timeout"`
	P95       time.Duration `json:"p95"`
	Avg       time.Duration `json:"avg"`
	Samples   int           `json:"samples"`
	Successes int64         `json:"successes"`
	Failures  int64         `json:"failures"`
	Timeouts  int64         `json:"timeouts"`
}

// Stats returns per-class statistics sorted by class name.
func (c *Controller) Stats() []ClassStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := make([]ClassStats, 0, len(c.classes))
	for _, class := range slices.Sorted(maps.Keys(c.classes)) {
		st := c.classes[class]
		p95, avg := summarize(st.history.successDurations())
		current := c.boundsFor(class).Base
		if c.cfg.Adaptive && st.computed {
			current = st.current
		}
		stats = append(stats, ClassStats{
			Class:     class,
			Timeout:   current,
			P95:       p95,
			Avg:       avg,
			Samples:   st.history.len(),
			Successes: st.successes,
			Failures:  st.failures,
			Timeouts:  st.timeouts,
		})
	}
	return stats
}
