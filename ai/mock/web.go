package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/poiesic/copilot/ai"
)

// MockSearchProvider is a test double for ai.SearchProvider.
type MockSearchProvider struct {
	// SearchFunc is called by Search if set.
	SearchFunc func(ctx context.Context, query string, opts ai.SearchOptions) ([]ai.SearchResult, error)

	mu      sync.Mutex
	queries []string
}

// NewMockSearchProvider creates a mock search provider returning three
// results per query.
func NewMockSearchProvider() *MockSearchProvider {
	return &MockSearchProvider{}
}

// Search returns injected or generated results.
func (m *MockSearchProvider) Search(ctx context.Context, query string, opts ai.SearchOptions) ([]ai.SearchResult, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	fn := m.SearchFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, query, opts)
	}

	slug := strings.ReplaceAll(strings.ToLower(query), " ", "-")
	results := make([]ai.SearchResult, 3)
	for i := range results {
		results[i] = ai.SearchResult{
			Title:   fmt.Sprintf("%s result %d", query, i+1),
			URL:     fmt.Sprintf("https://example.com/%s/%d", slug, i+1),
			Content: fmt.Sprintf("Snippet %d about %s", i+1, query),
		}
	}
	return results, nil
}

// CallCount returns the number of searches performed.
func (m *MockSearchProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// Queries returns the searched queries in call order.
func (m *MockSearchProvider) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// Reset clears the call history and custom function.
func (m *MockSearchProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = nil
	m.SearchFunc = nil
}

// MockFetcher is a test double for ai.ContentFetcher.
type MockFetcher struct {
	// FetchFunc is called by Fetch if set.
	FetchFunc func(ctx context.Context, url string) (*ai.Page, error)

	mu   sync.Mutex
	urls []string
}

// NewMockFetcher creates a mock fetcher with default behavior.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{}
}

// Fetch returns an injected or generated page.
func (m *MockFetcher) Fetch(ctx context.Context, url string) (*ai.Page, error) {
	m.mu.Lock()
	m.urls = append(m.urls, url)
	fn := m.FetchFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, url)
	}
	return &ai.Page{
		URL:   url,
		Title: "Page " + url,
		Text:  "Full content of " + url,
	}, nil
}

// CallCount returns the number of fetches performed.
func (m *MockFetcher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.urls)
}

// URLs returns the fetched URLs in call order.
func (m *MockFetcher) URLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.urls...)
}
