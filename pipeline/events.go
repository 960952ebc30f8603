package pipeline

import (
	"context"
	"sync"

	"github.com/poiesic/copilot/core"
)

// eventBuffer is the capacity of a run's event channel.
const eventBuffer = 64

// emitter serializes sends on a run's event channel and guarantees a
// single terminal event followed by close. Sends after the terminal event
// are dropped, which matters for streams that outlive a timed-out stage.
type emitter struct {
	ctx   context.Context
	runID string

	mu       sync.Mutex
	out      chan core.Event
	closed   bool
	answered bool // An answer chunk has been delivered
}

func newEmitter(ctx context.Context) *emitter {
	return &emitter{ctx: ctx, out: make(chan core.Event, eventBuffer)}
}

// send delivers a non-terminal event. Returns false once the run has
// finished or the consumer's context is done.
func (e *emitter) send(ev core.Event) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	ev.RunID = e.runID
	select {
	case e.out <- ev:
		if ev.Type == core.EventAnswerChunk {
			e.answered = true
		}
		return true
	case <-e.ctx.Done():
		return false
	}
}

// finish delivers the terminal event and closes the channel. An error
// following delivered answer chunks is marked as a retraction.
func (e *emitter) finish(ev core.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	defer close(e.out)

	ev.RunID = e.runID
	ev.Retract = ev.Type == core.EventError && e.answered
	select {
	case e.out <- ev:
		return
	default:
	}
	select {
	case e.out <- ev:
	case <-e.ctx.Done():
	}
}

func (e *emitter) status(stage core.Stage, msg string) {
	e.send(core.Event{Type: core.EventStatus, Stage: stage, Message: msg})
}
