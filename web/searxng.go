package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/poiesic/copilot/ai"
	"github.com/poiesic/copilot/core"
)

// SearXNG implements ai.SearchProvider against a SearXNG instance.
type SearXNG struct {
	clientOptions
	endpoint string
}

type searxngResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// NewSearXNG creates a provider for the instance at baseURL
// (e.g. "http://localhost:8080").
func NewSearXNG(baseURL string, opts ...Option) (*SearXNG, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrBaseURLRequired
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid search base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid search base URL %q: scheme and host required", baseURL)
	}

	o := defaultClientOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With("component", "searxng")

	return &SearXNG{
		clientOptions: o,
		endpoint:      strings.TrimSuffix(u.String(), "/") + "/search",
	}, nil
}

// Search queries the instance and returns results in rank order.
func (s *SearXNG) Search(ctx context.Context, query string, opts ai.SearchOptions) ([]ai.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	if opts.Language != "" {
		params.Set("language", opts.Language)
	}
	if len(opts.Engines) > 0 {
		params.Set("engines", strings.Join(opts.Engines, ","))
	}

	req, err := s.newRequest(ctx, s.endpoint+"?"+params.Encode(), "application/json")
	if err != nil {
		return nil, core.Internal("search", err, "building request: %v", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("search request failed", "query", query, "err", err)
		return nil, transportError(ctx, "search", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("search returned error status", "query", query, "status", resp.StatusCode)
		return nil, statusError("search", resp)
	}

	var payload searxngResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, s.maxBodyBytes)).Decode(&payload); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, core.Upstream("search", err, "decoding response: %v", err)
	}

	results := make([]ai.SearchResult, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, ai.SearchResult{
			Title:   strings.TrimSpace(r.Title),
			URL:     r.URL,
			Content: strings.TrimSpace(r.Content),
		})
		if opts.MaxResults > 0 && len(results) == opts.MaxResults {
			break
		}
	}

	s.logger.Debug("search complete", "query", query, "results", len(results))
	return results, nil
}

var _ ai.SearchProvider = (*SearXNG)(nil)
