package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/dedup"
	"github.com/poiesic/copilot/executor"
	"github.com/poiesic/copilot/perf"
	"github.com/poiesic/copilot/storage"
	"github.com/poiesic/copilot/timeout"
	"github.com/tmc/langchaingo/textsplitter"
)

// extract replaces snippets with summaries of the full pages. Documents
// whose page could not be summarized keep their snippet.
func (p *Pipeline) extract(ctx context.Context, run *core.PipelineRun) []core.SearchDocument {
	urls := extractionTargets(run.Documents, p.cfg.MaxExtractURLs)

	summaries := make(map[string]core.Summary, len(urls))
	for res := range executor.RunStream(ctx, p.manager.Executor, p.extractionTasks(urls)) {
		if !res.OK() {
			p.logger.Warn("extraction failed", "run", run.ID, "url", res.ID, "err", res.Err)
			run.RecordError(fmt.Errorf("extract %s: %w", res.ID, res.Err))
			continue
		}
		summaries[res.ID] = res.Value
	}
	p.logger.Debug("extraction finished", "run", run.ID, "pages", len(urls), "summarized", len(summaries))

	docs := make([]core.SearchDocument, len(run.Documents))
	for i, doc := range run.Documents {
		if s, ok := summaries[doc.URL]; ok {
			doc.Content = s.Content
			doc.Extracted = true
			if doc.Title == "" {
				doc.Title = s.Title
			}
		}
		docs[i] = doc
	}
	return docs
}

func (p *Pipeline) extractionTasks(urls []string) iter.Seq[executor.Task[core.Summary]] {
	return func(yield func(executor.Task[core.Summary]) bool) {
		for _, url := range urls {
			task := executor.Task[core.Summary]{
				ID: url,
				Run: func(ctx context.Context) (core.Summary, error) {
					return p.summarizePage(ctx, url)
				},
			}
			if !yield(task) {
				return
			}
		}
	}
}

// extractionTargets returns the unique URLs of docs, in order, capped at limit.
func extractionTargets(docs []core.SearchDocument, limit int) []string {
	seen := make(map[string]bool, len(docs))
	var urls []string
	for _, doc := range docs {
		if len(urls) == limit {
			break
		}
		if doc.URL == "" || seen[doc.URL] {
			continue
		}
		seen[doc.URL] = true
		urls = append(urls, doc.URL)
	}
	return urls
}

// summarizePage returns a summary of the page at url, consulting the
// document cache and the archive before fetching. Summaries depend on the
// page alone, so one summary serves every question that reaches the URL.
func (p *Pipeline) summarizePage(ctx context.Context, url string) (core.Summary, error) {
	key := core.HashKey("extract", url)
	return dedup.Do(ctx, p.manager.Dedup, key, func(ctx context.Context) (core.Summary, error) {
		if docs, ok := p.manager.Documents.Get(key); ok && len(docs) > 0 {
			return core.Summary{URL: url, Title: docs[0].Title, Content: docs[0].Content}, nil
		}

		if p.archive != nil {
			s, err := p.archive.GetSummary(ctx, url)
			switch {
			case err == nil:
				p.cacheSummary(key, *s)
				return *s, nil
			case !errors.Is(err, storage.ErrNotFound):
				p.logger.Warn("archive lookup failed", "url", url, "err", err)
			}
		}

		summary, err := timeout.Run(ctx, p.manager.Timeouts, perf.ClassExtraction,
			func(ctx context.Context) (core.Summary, error) {
				return p.fetchAndSummarize(ctx, url)
			}, 0)
		if err != nil {
			return core.Summary{}, err
		}

		p.cacheSummary(key, summary)
		if p.archive != nil {
			if err := p.archive.PutSummary(ctx, &summary, p.cfg.ArchiveTTL); err != nil {
				p.logger.Warn("archive write failed", "url", url, "err", err)
			}
		}
		return summary, nil
	})
}

func (p *Pipeline) fetchAndSummarize(ctx context.Context, url string) (core.Summary, error) {
	page, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return core.Summary{}, err
	}

	chunks, err := p.splitPage(page.Text)
	if err != nil {
		return core.Summary{}, core.Internal("extraction", err, "splitting %s", url)
	}
	if len(chunks) == 0 {
		return core.Summary{}, core.Upstream("extraction", nil, "no text on %s", url)
	}

	text, err := p.chat.Generate(ctx, summaryMessages(page, chunks))
	if err != nil {
		return core.Summary{}, err
	}
	text = stripThinking(text)
	if text == "" {
		return core.Summary{}, core.Upstream("extraction", nil, "empty summary for %s", url)
	}

	return core.Summary{
		URL:       url,
		Title:     page.Title,
		Content:   text,
		CreatedAt: p.now(),
	}, nil
}

// splitPage chunks page text and keeps the leading chunks.
func (p *Pipeline) splitPage(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.cfg.ChunkSize),
		textsplitter.WithChunkOverlap(p.cfg.ChunkOverlap),
	)
	chunks, err := splitter.SplitText(text)
	if err != nil {
		return nil, err
	}
	if len(chunks) > p.cfg.MaxChunksPerPage {
		chunks = chunks[:p.cfg.MaxChunksPerPage]
	}
	return chunks, nil
}

func (p *Pipeline) cacheSummary(key string, s core.Summary) {
	p.manager.Documents.Set(key, []core.SearchDocument{{
		Title:     s.Title,
		URL:       s.URL,
		Content:   s.Content,
		Extracted: true,
	}}, 0)
}
