package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel generates text with a chat-tuned language model.
// Implementations must be thread-safe for concurrent use.
type ChatModel interface {
	// Generate returns the complete model response for the messages.
	Generate(ctx context.Context, messages []Message) (string, error)

	// Stream delivers the response incrementally to onChunk and returns the
	// full text once the model finishes. If onChunk returns an error the
	// stream is aborted and that error is returned.
	Stream(ctx context.Context, messages []Message, onChunk func(chunk string) error) (string, error)
}

// SearchProvider queries a web search engine.
// Implementations must be thread-safe for concurrent use.
type SearchProvider interface {
	// Search returns results for the query, best match first.
	// May fail or time out; callers treat failures as per-query degradation.
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)
}

// ContentFetcher retrieves full web pages.
// Implementations must be thread-safe for concurrent use.
type ContentFetcher interface {
	// Fetch downloads the page at url and returns its readable text.
	Fetch(ctx context.Context, url string) (*Page, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and ChatModel instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// ChatModel returns the language model service.
	// The returned ChatModel is safe for concurrent use.
	ChatModel() ChatModel

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
