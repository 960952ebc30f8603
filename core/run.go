package core

import (
	"errors"
	"fmt"
	"time"
)

// Stage is a state of the search orchestration state machine.
type Stage int

const (
	StagePending Stage = iota
	StageQueryGeneration
	StageRetrieval
	StageExtraction
	StageReranking
	StageSynthesis
	StageDone
	StageFailed
)

var stageNames = map[Stage]string{
	StagePending:         "pending",
	StageQueryGeneration: "query_generation",
	StageRetrieval:       "retrieval",
	StageExtraction:      "extraction",
	StageReranking:       "reranking",
	StageSynthesis:       "synthesis",
	StageDone:            "done",
	StageFailed:          "failed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Terminal reports whether no further transitions are possible.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// StageTiming records how long a stage ran.
type StageTiming struct {
	Stage    Stage
	Started  time.Time
	Duration time.Duration
}

// PipelineRun holds the state of a single pipeline execution.
// It exists for the lifetime of one request and is never shared.
type PipelineRun struct {
	ID         string
	Query      string
	History    []ChatTurn
	Mode       OptimizationMode
	SubQueries []string
	Documents  []SearchDocument // Retrieved (and possibly extracted) documents
	Reranked   []SearchDocument
	Answer     string
	Timings    []StageTiming
	Errors     []error // Non-fatal stage errors that were degraded around
	Stage      Stage

	stageStarted time.Time
}

// NewPipelineRun creates a run in the pending stage.
func NewPipelineRun(id, query string, history []ChatTurn, mode OptimizationMode) *PipelineRun {
	return &PipelineRun{
		ID:      id,
		Query:   query,
		History: history,
		Mode:    mode,
		Stage:   StagePending,
	}
}

// Advance moves the run to the next stage, closing the timing of the
// current one. Stages only move forward; any stage may move to StageFailed.
func (r *PipelineRun) Advance(next Stage, now time.Time) error {
	if r.Stage.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Stage, next)
	}
	if next != StageFailed && next <= r.Stage {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Stage, next)
	}
	if r.Stage != StagePending {
		r.Timings = append(r.Timings, StageTiming{
			Stage:    r.Stage,
			Started:  r.stageStarted,
			Duration: now.Sub(r.stageStarted),
		})
	}
	r.Stage = next
	r.stageStarted = now
	return nil
}

// RecordError appends a non-fatal error.
func (r *PipelineRun) RecordError(err error) {
	if err != nil {
		r.Errors = append(r.Errors, err)
	}
}

// Err joins all recorded non-fatal errors.
func (r *PipelineRun) Err() error {
	return errors.Join(r.Errors...)
}

// EventType tags pipeline events.
type EventType string

const (
	EventStatus      EventType = "status"
	EventThinking    EventType = "thinking"
	EventAnswerChunk EventType = "answer-chunk"
	EventError       EventType = "error"
	EventEnd         EventType = "end"
)

// Event is a progress notification emitted by a pipeline run.
// A stream of events terminates with exactly one EventError or EventEnd.
type Event struct {
	Type    EventType
	RunID   string
	Stage   Stage
	Message string // Status text, thinking text or answer chunk
	Err     *Error // Set on EventError

	// Retract is set on EventError when answer chunks were already
	// delivered; consumers must discard them.
	Retract bool

	// Set on EventEnd
	Sources []SearchDocument
	Timings []StageTiming
	Cached  bool
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventError || e.Type == EventEnd
}
