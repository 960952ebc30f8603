package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/poiesic/copilot/core"
)

var (
	// ErrBaseURLRequired is returned when a SearXNG provider is created without a URL.
	ErrBaseURLRequired = errors.New("search base URL is required")

	// ErrNoContent is returned when a fetched page has no readable text.
	ErrNoContent = errors.New("page has no readable content")
)

// transportError classifies a failed round trip.
func transportError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return core.Upstream(op, err, "request failed: %v", err)
}

// statusError classifies a non-2xx response.
func statusError(op string, resp *http.Response) error {
	cause := fmt.Errorf("HTTP %d", resp.StatusCode)
	if resp.StatusCode == http.StatusTooManyRequests {
		return core.RateLimited(op, cause, "%v (retry after %q)", cause, resp.Header.Get("Retry-After"))
	}
	return core.Upstream(op, cause, "%v", cause)
}
