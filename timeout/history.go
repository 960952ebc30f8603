package timeout

import "time"

// Record is one observed operation latency.
type Record struct {
	Class     string
	Duration  time.Duration
	Success   bool
	TimedOut  bool
	Timestamp time.Time
}

// history is a fixed-capacity ring buffer of records. The oldest record
// is overwritten once the buffer is full.
type history struct {
	records []Record
	next    int
	full    bool
}

func newHistory(capacity int) *history {
	return &history{records: make([]Record, capacity)}
}

func (h *history) add(r Record) {
	h.records[h.next] = r
	h.next = (h.next + 1) % len(h.records)
	if h.next == 0 {
		h.full = true
	}
}

func (h *history) len() int {
	if h.full {
		return len(h.records)
	}
	return h.next
}

// successDurations returns the durations of successful records, oldest first.
func (h *history) successDurations() []time.Duration {
	n := h.len()
	start := 0
	if h.full {
		start = h.next
	}
	durations := make([]time.Duration, 0, n)
	for i := range n {
		r := h.records[(start+i)%len(h.records)]
		if r.Success {
			durations = append(durations, r.Duration)
		}
	}
	return durations
}
