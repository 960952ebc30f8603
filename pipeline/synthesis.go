package pipeline

import (
	"context"

	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/perf"
	"github.com/poiesic/copilot/timeout"
)

// synthesize streams the answer. Reasoning spans become thinking events
// and the rest answer-chunk events. Returns the answer without reasoning.
func (p *Pipeline) synthesize(ctx context.Context, run *core.PipelineRun, em *emitter, instructions string) (string, error) {
	msgs := synthesisMessages(run, instructions, p.now())

	return timeout.Run(ctx, p.manager.Timeouts, perf.ClassSynthesis,
		func(ctx context.Context) (string, error) {
			forward := func(typ core.EventType) func(string) error {
				return func(text string) error {
					if err := ctx.Err(); err != nil {
						return err
					}
					em.send(core.Event{Type: typ, Stage: core.StageSynthesis, Message: text})
					return nil
				}
			}
			splitter := newThinkSplitter(forward(core.EventThinking), forward(core.EventAnswerChunk))

			if _, err := p.chat.Stream(ctx, msgs, splitter.Write); err != nil {
				return "", err
			}
			if err := splitter.Flush(); err != nil {
				return "", err
			}
			answer := splitter.Answer()
			if answer == "" {
				return "", core.Upstream("synthesis", nil, "model returned an empty answer")
			}
			return answer, nil
		}, 0)
}
