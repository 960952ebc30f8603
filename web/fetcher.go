package web

import (
	"context"
	"io"
	"mime"
	"strings"

	"github.com/poiesic/copilot/ai"
	"github.com/poiesic/copilot/core"
	"golang.org/x/net/html"
)

// Fetcher implements ai.ContentFetcher over HTTP.
type Fetcher struct {
	clientOptions
}

// NewFetcher creates a page fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	o := defaultClientOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With("component", "fetcher")
	return &Fetcher{clientOptions: o}
}

// Fetch downloads target and returns its readable text.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*ai.Page, error) {
	req, err := f.newRequest(ctx, target, "text/html,text/plain;q=0.9,*/*;q=0.5")
	if err != nil {
		return nil, core.Validation("fetch", err, "invalid url %q: %v", target, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("fetch failed", "url", target, "err", err)
		return nil, transportError(ctx, "fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError("fetch", resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, transportError(ctx, "fetch", err)
	}

	page := &ai.Page{URL: target}
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "text/plain" {
		page.Text = normalizeText(string(body))
	} else {
		doc, err := html.Parse(strings.NewReader(string(body)))
		if err != nil {
			return nil, core.Upstream("fetch", err, "parsing html: %v", err)
		}
		page.Title = extractTitle(doc)
		page.Text = extractText(doc)
	}

	if page.Text == "" {
		return nil, core.Upstream("fetch", ErrNoContent, "%v: %s", ErrNoContent, target)
	}

	f.logger.Debug("fetched page", "url", target, "bytes", len(body), "text", len(page.Text))
	return page, nil
}

var _ ai.ContentFetcher = (*Fetcher)(nil)
