package executor

// Stats is a snapshot of executor counters.
type Stats struct {
	Submitted int64 `json:"submitted"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	TimedOut  int64 `json:"timed_out"` // Attempts, not tasks
	Retries   int64 `json:"retries"`
	Running   int   `json:"running"`
	Waiting   int   `json:"waiting"`
	Capacity  int   `json:"capacity"`
}

// Stats returns current counters.
func (e *Executor) Stats() Stats {
	return Stats{
		Submitted: e.submitted.Load(),
		Succeeded: e.succeeded.Load(),
		Failed:    e.failed.Load(),
		TimedOut:  e.timedOut.Load(),
		Retries:   e.retries.Load(),
		Running:   e.pool.Running(),
		Waiting:   e.pool.Waiting(),
		Capacity:  e.pool.Cap(),
	}
}

// ResetStats zeroes the counters. Gauges (running, waiting) are unaffected.
func (e *Executor) ResetStats() {
	e.submitted.Store(0)
	e.succeeded.Store(0)
	e.failed.Store(0)
	e.timedOut.Store(0)
	e.retries.Store(0)
}
