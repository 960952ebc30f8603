package pipeline

import "errors"

var (
	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrSearchProviderRequired is returned when a search provider is not provided.
	ErrSearchProviderRequired = errors.New("search provider required")

	// ErrManagerRequired is returned when the performance manager is not provided.
	ErrManagerRequired = errors.New("performance manager required")

	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("invalid pipeline config")

	// ErrEmbeddingMismatch is returned when the embedder returns a different
	// number of vectors than texts it was given.
	ErrEmbeddingMismatch = errors.New("embedding count mismatch")
)
