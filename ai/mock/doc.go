// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.ChatModel,
// ai.SearchProvider, ai.ContentFetcher and ai.AIProvider for use in unit
// tests. The mocks allow tests to run without external service dependencies
// and enable controlled, deterministic behavior. All mocks are safe for
// concurrent use, since the pipeline calls them from worker goroutines.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	embeddings, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockEmbedder := mock.NewMockEmbedder()
//	mockEmbedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("embedding service down")
//	}
//
//	// Check call counts
//	count := mockEmbedder.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockChatModel: Echoes the last user message; streams it word by word
//   - MockSearchProvider: Returns three results per query
//   - MockFetcher: Returns a page whose text mentions the URL
//   - MockProvider: Aggregates mock embedder and chat model
package mock
