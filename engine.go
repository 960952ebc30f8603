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


package copilot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/poiesic/copilot/ai"
	"github.com/poiesic/copilot/ai/openai"
	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/perf"
	"github.com/poiesic/copilot/pipeline"
	"github.com/poiesic/copilot/storage"
	"github.com/poiesic/copilot/storage/badger"
	"github.com/poiesic/copilot/web"
)

// Engine wires the AI provider, web search, performance layer and
// pipeline together from a Config.
type Engine struct {
	cfg      *Config
	provider ai.AIProvider
	manager  *perf.Manager
	archive  storage.SummaryStore
	backend  *badger.Backend
	pipeline *pipeline.Pipeline
	logger   *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider ai.AIProvider
	searcher ai.SearchProvider
	fetcher  ai.ContentFetcher
	logger   *slog.Logger
}

// WithProvider replaces the OpenAI-compatible provider built from the
// AI config. The engine takes ownership and closes it.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithSearchProvider replaces the SearXNG provider.
func WithSearchProvider(searcher ai.SearchProvider) EngineOption {
	return func(o *engineOptions) {
		o.searcher = searcher
	}
}

// WithFetcher replaces the HTTP page fetcher.
func WithFetcher(fetcher ai.ContentFetcher) EngineOption {
	return func(o *engineOptions) {
		o.fetcher = fetcher
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine validates cfg and builds every component.
func NewEngine(cfg *Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	e := &Engine{cfg: cfg, logger: options.logger.With("component", "engine")}

	webOpts := []web.Option{
		web.WithHTTPClient(&http.Client{Timeout: cfg.Search.RequestTimeout}),
		web.WithUserAgent(cfg.Search.UserAgent),
		web.WithMaxBodyBytes(cfg.Search.MaxBodyBytes),
		web.WithLogger(options.logger),
	}

	searcher := options.searcher
	if searcher == nil {
		s, err := web.NewSearXNG(cfg.Search.URL, webOpts...)
		if err != nil {
			return nil, fmt.Errorf("creating search provider: %w", err)
		}
		searcher = s
	}

	fetcher := options.fetcher
	if fetcher == nil {
		fetcher = web.NewFetcher(webOpts...)
	}

	e.provider = options.provider
	if e.provider == nil {
		provider, err := openai.NewProvider(&cfg.AI)
		if err != nil {
			return nil, fmt.Errorf("creating AI provider: %w", err)
		}
		e.provider = provider
	}

	manager, err := perf.NewManager(cfg.Perf(), perf.WithLogger(options.logger))
	if err != nil {
		e.Close()
		return nil, err
	}
	e.manager = manager

	pipelineOpts := []pipeline.Option{
		pipeline.WithConfig(cfg.Pipeline),
		pipeline.WithFetcher(fetcher),
		pipeline.WithLogger(options.logger),
	}
	if cfg.Archive.Path != "" {
		backend, err := badger.OpenBackend(cfg.Archive.Path, false)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("opening archive: %w", err)
		}
		e.backend = backend
		archive, err := badger.NewSummaryStore(backend)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.archive = archive
		pipelineOpts = append(pipelineOpts, pipeline.WithArchive(archive))
	}

	p, err := pipeline.NewPipeline(e.provider, searcher, manager, pipelineOpts...)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.pipeline = p

	e.logger.Debug("engine ready",
		"chat_model", cfg.AI.ChatModel,
		"search", cfg.Search.URL,
		"extraction", cfg.Pipeline.ExtractionEnabled,
		"archive", cfg.Archive.Path != "")
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() *Config {
	return e.cfg
}

// Run answers req. See pipeline.Pipeline.Run.
func (e *Engine) Run(ctx context.Context, req pipeline.Request) <-chan core.Event {
	return e.pipeline.Run(ctx, req)
}

// Stats returns statistics for the named component ("" means all).
func (e *Engine) Stats(component string) (perf.Snapshot, error) {
	return e.manager.Stats(perf.Component(component))
}

// Clear resets the named component ("" means all).
func (e *Engine) Clear(component string) error {
	return e.manager.Clear(perf.Component(component))
}

// Cleanup removes expired and stale entries from the named component
// ("" means all) and returns how many were removed.
func (e *Engine) Cleanup(component string) (int, error) {
	return e.manager.Cleanup(perf.Component(component))
}

// PurgeArchive removes every archived page summary. It is a no-op when
// the archive is disabled.
func (e *Engine) PurgeArchive(ctx context.Context) error {
	if e.archive == nil {
		return nil
	}
	return e.archive.Purge(ctx)
}

// Close releases every component. Subsequent calls return the first result.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.closeErr = e.close()
	})
	return e.closeErr
}

func (e *Engine) close() error {
	var errs []error
	if e.manager != nil {
		e.manager.Close()
	}
	if e.archive != nil {
		if err := e.archive.Close(); err != nil {
			e.logger.Error("error closing summary archive", "err", err)
			errs = append(errs, err)
		}
	}
	if e.backend != nil {
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing archive backend", "err", err)
			errs = append(errs, err)
		}
	}
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
