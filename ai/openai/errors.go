package openai

import (
	"context"
	"strings"

	"github.com/poiesic/copilot/core"
)

// classifyError maps client failures onto core error kinds.
// Context errors pass through unchanged.
func classifyError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") {
		return core.RateLimited(op, err, "%v", err)
	}
	return core.Upstream(op, err, "%v", err)
}
