package pipeline

import (
	"context"
	"strconv"

	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/dedup"
	"github.com/poiesic/copilot/perf"
	"github.com/poiesic/copilot/timeout"
)

// generateQueries asks the chat model for sub-queries. Model failures fall
// back to the verbatim query; only cancellation is returned as an error.
func (p *Pipeline) generateQueries(ctx context.Context, run *core.PipelineRun) ([]string, error) {
	limit := min(run.Mode.MaxSubQueries(), p.cfg.MaxSubQueries)
	key := core.HashKey("querygen",
		core.NormalizeQuery(run.Query), core.HistoryDigest(run.History), strconv.Itoa(limit))

	queries, err := dedup.Do(ctx, p.manager.Dedup, key, func(ctx context.Context) ([]string, error) {
		msgs := queryGenerationMessages(run.Query, run.History, limit)
		response, err := timeout.Run(ctx, p.manager.Timeouts, perf.ClassQueryGeneration,
			func(ctx context.Context) (string, error) {
				return p.chat.Generate(ctx, msgs)
			}, 0)
		if err != nil {
			return nil, err
		}
		return ParseSubQueries(stripThinking(response), run.Query, limit), nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		p.logger.Warn("query generation failed, using original query", "run", run.ID, "err", err)
		run.RecordError(core.AsError("query_generation", err))
		return []string{run.Query}, nil
	}

	p.logger.Debug("generated sub-queries", "run", run.ID, "queries", queries)
	return queries, nil
}
