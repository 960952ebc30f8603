package pipeline

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/executor"
	"github.com/poiesic/copilot/perf"
	"github.com/poiesic/copilot/timeout"
)

// rerank orders the run's documents by similarity to the query. When
// embedding fails the deduplicated documents are returned unranked. Only
// cancellation is returned as an error.
func (p *Pipeline) rerank(ctx context.Context, run *core.PipelineRun) ([]core.SearchDocument, error) {
	docs := core.DedupeByURL(run.Documents)
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, 0, len(docs)+1)
	texts = append(texts, run.Query)
	for _, doc := range docs {
		texts = append(texts, documentText(doc))
	}

	vectors, err := p.embed(ctx, texts)
	if err == nil && len(vectors) != len(texts) {
		err = fmt.Errorf("%w: %d texts, %d vectors", ErrEmbeddingMismatch, len(texts), len(vectors))
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		p.logger.Warn("embedding failed, keeping unranked documents", "run", run.ID, "err", err)
		run.RecordError(core.AsError("reranking", err))
		return docs[:min(len(docs), p.cfg.MaxRerankedDocs)], nil
	}

	ranked := Rerank(vectors[0], docs, vectors[1:], p.cfg.RerankThreshold, p.cfg.MaxRerankedDocs)
	p.logger.Debug("reranked documents", "run", run.ID, "candidates", len(docs), "kept", len(ranked))
	return ranked, nil
}

// embed vectorizes texts, splitting them into batches of EmbedBatchSize
// that run concurrently. Any failing batch fails the whole call.
func (p *Pipeline) embed(ctx context.Context, texts []string) ([][]float32, error) {
	embedBatch := func(batch []string) func(context.Context) ([][]float32, error) {
		return func(ctx context.Context) ([][]float32, error) {
			return timeout.Run(ctx, p.manager.Timeouts, perf.ClassEmbedding,
				func(ctx context.Context) ([][]float32, error) {
					return p.embedder.EmbedTexts(ctx, batch)
				}, 0)
		}
	}

	if len(texts) <= p.cfg.EmbedBatchSize {
		return embedBatch(texts)(ctx)
	}

	var tasks []executor.Task[[][]float32]
	for batch := range slices.Chunk(texts, p.cfg.EmbedBatchSize) {
		tasks = append(tasks, executor.Task[[][]float32]{
			ID:  fmt.Sprintf("embed-%d", len(tasks)),
			Run: embedBatch(batch),
		})
	}
	batches, err := executor.RunAll(ctx, p.manager.Executor, tasks)
	if err != nil {
		return nil, err
	}
	return slices.Concat(batches...), nil
}

// Rerank scores docs by cosine similarity between queryVector and the
// matching entry of docVectors, keeps those scoring at least threshold,
// sorts them by score descending (stable for ties) and returns at most
// limit. Documents without a vector are dropped.
func Rerank(queryVector []float32, docs []core.SearchDocument, docVectors [][]float32, threshold float64, limit int) []core.SearchDocument {
	query := normalizeVector(queryVector)

	var kept []core.SearchDocument
	for i, doc := range docs {
		if i >= len(docVectors) {
			break
		}
		score := cosineSimilarity(query, normalizeVector(docVectors[i]))
		if score < threshold {
			continue
		}
		doc.Score = score
		kept = append(kept, doc)
	}

	slices.SortStableFunc(kept, func(a, b core.SearchDocument) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

func documentText(doc core.SearchDocument) string {
	if doc.Title == "" {
		return doc.Content
	}
	return doc.Title + "\n" + doc.Content
}

// cosineSimilarity is the dot product of two unit vectors. Vectors of
// different lengths are compared over their common prefix.
func cosineSimilarity(a, b []float32) float64 {
	var dot float64
	for i := range min(len(a), len(b)) {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// normalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func normalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float64
	for _, val := range v {
		magnitude += float64(val) * float64(val)
	}
	magnitude = math.Sqrt(magnitude)

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = float32(float64(val) / magnitude)
	}
	return result
}
