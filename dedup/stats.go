package dedup

import "time"

// Stats is a snapshot of deduplicator activity.
type Stats struct {
	Pending        int           `json:"pending"`
	Waiters        int           `json:"waiters"` // Callers attached to pending entries
	OldestPending  time.Duration `json:"oldest_pending"`
	Calls          int64         `json:"calls"`
	Executions     int64         `json:"executions"`
	Deduplicated   int64         `json:"deduplicated"`
	StaleEvictions int64         `json:"stale_evictions"`
}

// Stats returns current counters.
func (d *Deduplicator) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	s := Stats{
		Pending:        len(d.pending),
		Calls:          d.calls.Load(),
		Executions:     d.executions.Load(),
		StaleEvictions: d.stale.Load(),
	}
	for _, p := range d.pending {
		s.Waiters += p.waiters
		if age := now.Sub(p.started); age > s.OldestPending {
			s.OldestPending = age
		}
	}
	s.Deduplicated = max(s.Calls-s.Executions, 0)
	return s
}
