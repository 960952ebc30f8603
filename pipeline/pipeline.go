// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/copilot/ai"
	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/perf"
	"github.com/poiesic/copilot/storage"
)

// Pipeline answers questions by generating search queries, retrieving and
// optionally extracting web pages, reranking them against the question and
// streaming a synthesized answer.
type Pipeline struct {
	chat     ai.ChatModel
	embedder ai.Embedder
	searcher ai.SearchProvider
	fetcher  ai.ContentFetcher
	archive  storage.SummaryStore
	manager  *perf.Manager
	cfg      Config
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(p *Pipeline) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		p.cfg = cfg
		return nil
	}
}

// WithFetcher sets the page fetcher used by extraction.
func WithFetcher(fetcher ai.ContentFetcher) Option {
	return func(p *Pipeline) error {
		p.fetcher = fetcher
		return nil
	}
}

// WithArchive sets a persistent store consulted for page summaries
// before fetching and updated after summarizing.
func WithArchive(archive storage.SummaryStore) Option {
	return func(p *Pipeline) error {
		p.archive = archive
		return nil
	}
}

// WithClock sets the time source used for stage timings and prompts.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		if now == nil {
			return errors.New("clock must not be nil")
		}
		p.now = now
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a pipeline using provider for language model calls,
// searcher for retrieval and manager for execution, deduplication,
// timeouts and caching.
func NewPipeline(provider ai.AIProvider, searcher ai.SearchProvider, manager *perf.Manager, opts ...Option) (*Pipeline, error) {
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if searcher == nil {
		return nil, ErrSearchProviderRequired
	}
	if manager == nil {
		return nil, ErrManagerRequired
	}

	p := &Pipeline{
		chat:     provider.ChatModel(),
		embedder: provider.Embedder(),
		searcher: searcher,
		manager:  manager,
		cfg:      DefaultConfig(),
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "pipeline")

	if p.cfg.ExtractionEnabled && p.fetcher == nil {
		p.logger.Warn("extraction enabled without a content fetcher, skipping extraction")
	}
	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Request is a single question to answer.
type Request struct {
	Query   string
	History []core.ChatTurn

	// Mode selects the sub-query budget. Empty means balanced.
	Mode core.OptimizationMode

	// SystemInstructions are appended to the synthesis prompt.
	SystemInstructions string
}

// Run answers req, reporting progress on the returned channel. The stream
// always ends with exactly one EventEnd or EventError, after which the
// channel is closed. Consumers must drain the channel or cancel ctx.
func (p *Pipeline) Run(ctx context.Context, req Request) <-chan core.Event {
	em := newEmitter(ctx)
	em.runID = p.newID()
	go p.execute(ctx, req, em)
	return em.out
}

func (p *Pipeline) execute(ctx context.Context, req Request, em *emitter) {
	logger := p.logger.With("run", em.runID)

	mode, err := core.ParseMode(string(req.Mode))
	run := core.NewPipelineRun(em.runID, req.Query, req.History, mode)
	if err == nil {
		err = core.ValidateQuery(req.Query)
	}
	if err == nil {
		err = core.ValidateHistory(req.History)
	}
	if err != nil {
		p.fail(run, em, err)
		return
	}

	answerKey := answerCacheKey(req.Query, mode)
	if answer, ok := p.manager.Answers.Get(answerKey); ok {
		logger.Debug("answer cache hit")
		p.replay(run, em, answer)
		return
	}

	start := p.now()
	logger.Debug("run started", "mode", mode)

	p.advance(run, core.StageQueryGeneration)
	em.status(run.Stage, "Generating search queries")
	run.SubQueries, err = p.generateQueries(ctx, run)
	if err != nil {
		p.fail(run, em, err)
		return
	}

	p.advance(run, core.StageRetrieval)
	em.status(run.Stage, fmt.Sprintf("Searching the web for %d queries", len(run.SubQueries)))
	run.Documents = p.retrieve(ctx, run)
	if err := ctx.Err(); err != nil {
		p.fail(run, em, err)
		return
	}

	if p.cfg.ExtractionEnabled && p.fetcher != nil && len(run.Documents) > 0 {
		p.advance(run, core.StageExtraction)
		em.status(run.Stage, "Reading source pages")
		run.Documents = p.extract(ctx, run)
		if err := ctx.Err(); err != nil {
			p.fail(run, em, err)
			return
		}
	}

	p.advance(run, core.StageReranking)
	em.status(run.Stage, fmt.Sprintf("Ranking %d sources", len(run.Documents)))
	run.Reranked, err = p.rerank(ctx, run)
	if err != nil {
		p.fail(run, em, err)
		return
	}

	p.advance(run, core.StageSynthesis)
	em.status(run.Stage, "Writing answer")
	run.Answer, err = p.synthesize(ctx, run, em, req.SystemInstructions)
	if err != nil {
		p.fail(run, em, err)
		return
	}

	p.manager.Answers.Set(answerKey, core.Answer{
		Query:     req.Query,
		Mode:      mode,
		Text:      run.Answer,
		Sources:   run.Reranked,
		CreatedAt: p.now(),
	}, 0)

	p.advance(run, core.StageDone)
	if len(run.Errors) > 0 {
		logger.Info("run completed with degraded stages", "errors", len(run.Errors), "err", run.Err())
	}
	logger.Debug("run completed", "duration", p.now().Sub(start), "sources", len(run.Reranked))
	em.finish(core.Event{
		Type:    core.EventEnd,
		Stage:   run.Stage,
		Sources: run.Reranked,
		Timings: run.Timings,
	})
}

// replay streams a cached answer.
func (p *Pipeline) replay(run *core.PipelineRun, em *emitter, answer core.Answer) {
	p.advance(run, core.StageDone)
	run.Answer = answer.Text
	run.Reranked = answer.Sources

	em.status(run.Stage, "Using cached answer")
	em.send(core.Event{Type: core.EventAnswerChunk, Stage: run.Stage, Message: answer.Text})
	em.finish(core.Event{
		Type:    core.EventEnd,
		Stage:   run.Stage,
		Sources: answer.Sources,
		Timings: run.Timings,
		Cached:  true,
	})
}

func (p *Pipeline) fail(run *core.PipelineRun, em *emitter, err error) {
	op := run.Stage.String()
	p.advance(run, core.StageFailed)

	cerr := core.AsError(op, err)
	p.logger.Warn("run failed", "run", run.ID, "stage", op, "kind", cerr.Kind, "err", err)
	em.finish(core.Event{
		Type:    core.EventError,
		Stage:   run.Stage,
		Message: cerr.Error(),
		Err:     cerr,
		Timings: run.Timings,
	})
}

func (p *Pipeline) advance(run *core.PipelineRun, next core.Stage) {
	if err := run.Advance(next, p.now()); err != nil {
		p.logger.Error("invalid stage transition", "run", run.ID, "err", err)
	}
}

func answerCacheKey(query string, mode core.OptimizationMode) string {
	return core.HashKey("answer", core.NormalizeQuery(query), string(mode))
}
