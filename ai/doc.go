// Package ai provides abstractions for the external services the search
// pipeline depends on.
//
// This package defines interfaces for AI and web operations including text
// embeddings, chat completion, web search and page fetching. It follows the
// dependency inversion principle, allowing the pipeline and performance layer
// to depend on abstractions rather than concrete implementations.
//
// # Design Principles
//
// The package is designed around these interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - ChatModel: Generates (optionally streamed) text from chat messages
//   - SearchProvider: Queries a web search engine
//   - ContentFetcher: Downloads a page and reduces it to readable text
//   - AIProvider: Aggregates Embedder and ChatModel for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: Embedder and ChatModel using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//   - web: SearchProvider (SearXNG) and ContentFetcher (HTTP + HTML)
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockChatModel)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public fields and methods (CallCount, GenerateFunc, Reset, etc.).
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "Hello world")
//	text, err := provider.ChatModel().Generate(ctx, []ai.Message{
//	    ai.UserMessage("What is photosynthesis?"),
//	})
package ai
