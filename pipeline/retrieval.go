package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/poiesic/copilot/ai"
	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/dedup"
	"github.com/poiesic/copilot/executor"
	"github.com/poiesic/copilot/perf"
	"github.com/poiesic/copilot/timeout"
)

// retrieve searches every sub-query concurrently. Failed searches are
// logged and recorded on the run; their documents are simply missing.
func (p *Pipeline) retrieve(ctx context.Context, run *core.PipelineRun) []core.SearchDocument {
	tasks := make([]executor.Task[[]core.SearchDocument], len(run.SubQueries))
	for i, query := range run.SubQueries {
		priority := executor.PriorityNormal
		if i == 0 {
			priority = executor.PriorityHigh
		}
		tasks[i] = executor.Task[[]core.SearchDocument]{
			ID:       fmt.Sprintf("search-%d", i),
			Priority: priority,
			Run: func(ctx context.Context) ([]core.SearchDocument, error) {
				return p.search(ctx, query, run.Mode)
			},
		}
	}

	exec := p.manager.Executor
	var results []executor.Result[[]core.SearchDocument]
	if len(tasks) > exec.Capacity() {
		results = executor.RunBatched(ctx, exec, tasks, 0)
	} else {
		results = executor.RunBestEffort(ctx, exec, tasks)
	}

	var docs []core.SearchDocument
	for i, res := range results {
		if !res.OK() {
			p.logger.Warn("search failed", "run", run.ID, "query", run.SubQueries[i], "err", res.Err)
			run.RecordError(fmt.Errorf("search %q: %w", run.SubQueries[i], res.Err))
			continue
		}
		docs = append(docs, res.Value...)
	}
	p.logger.Debug("retrieval finished", "run", run.ID, "documents", len(docs))
	return docs
}

// search returns the documents for one sub-query, sharing in-flight
// searches and cached results between runs.
func (p *Pipeline) search(ctx context.Context, query string, mode core.OptimizationMode) ([]core.SearchDocument, error) {
	key := core.HashKey("search", core.NormalizeQuery(query), string(mode))
	docs, err := dedup.Do(ctx, p.manager.Dedup, key, func(ctx context.Context) ([]core.SearchDocument, error) {
		if docs, ok := p.manager.Documents.Get(key); ok {
			return docs, nil
		}

		results, err := timeout.Run(ctx, p.manager.Timeouts, perf.ClassSearch,
			func(ctx context.Context) ([]ai.SearchResult, error) {
				return p.searcher.Search(ctx, query, ai.SearchOptions{
					MaxResults: p.cfg.MaxSourcesPerQuery,
					Language:   p.cfg.SearchLanguage,
					Engines:    p.cfg.SearchEngines,
				})
			}, 0)
		if err != nil {
			return nil, err
		}

		docs := toDocuments(results, query, p.cfg.MaxSourcesPerQuery)
		p.manager.Documents.Set(key, docs, 0)
		return docs, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(docs), nil
}

func toDocuments(results []ai.SearchResult, query string, limit int) []core.SearchDocument {
	docs := make([]core.SearchDocument, 0, min(len(results), limit))
	for _, r := range results {
		if len(docs) == limit {
			break
		}
		docs = append(docs, core.SearchDocument{
			Title:       r.Title,
			URL:         r.URL,
			Content:     r.Content,
			SourceQuery: query,
		})
	}
	return docs
}
