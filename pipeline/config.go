package pipeline

import (
	"fmt"
	"time"
)

// HardMaxSubQueries is the upper bound for Config.MaxSubQueries.
const HardMaxSubQueries = 5

// Config tunes the stages of a pipeline run.
type Config struct {
	// MaxSubQueries caps generated sub-queries regardless of mode (1-5).
	MaxSubQueries int `yaml:"max_sub_queries"`

	// MaxSourcesPerQuery caps the documents kept from each search.
	MaxSourcesPerQuery int `yaml:"max_sources_per_query"`

	// SearchLanguage and SearchEngines are passed to the search provider.
	SearchLanguage string   `yaml:"search_language,omitempty"`
	SearchEngines  []string `yaml:"search_engines,omitempty"`

	// ExtractionEnabled replaces search snippets with summaries of the
	// full pages. Requires a content fetcher.
	ExtractionEnabled bool `yaml:"extraction_enabled"`

	// MaxExtractURLs caps the pages fetched per run.
	MaxExtractURLs int `yaml:"max_extract_urls"`

	// ChunkSize, ChunkOverlap and MaxChunksPerPage control how much of a
	// page is given to the summarizer.
	ChunkSize        int `yaml:"chunk_size"`
	ChunkOverlap     int `yaml:"chunk_overlap"`
	MaxChunksPerPage int `yaml:"max_chunks_per_page"`

	// ArchiveTTL expires archived summaries. Zero keeps them forever.
	ArchiveTTL time.Duration `yaml:"archive_ttl"`

	// RerankThreshold is the minimum cosine similarity to the query.
	RerankThreshold float64 `yaml:"rerank_threshold"`

	// MaxRerankedDocs caps the documents passed to synthesis.
	MaxRerankedDocs int `yaml:"max_reranked_docs"`

	// EmbedBatchSize is the largest number of texts sent in one
	// embedding call.
	EmbedBatchSize int `yaml:"embed_batch_size"`
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		MaxSubQueries:      HardMaxSubQueries,
		MaxSourcesPerQuery: 5,
		ExtractionEnabled:  false,
		MaxExtractURLs:     10,
		ChunkSize:          2000,
		ChunkOverlap:       200,
		MaxChunksPerPage:   4,
		ArchiveTTL:         7 * 24 * time.Hour,
		RerankThreshold:    0.7,
		MaxRerankedDocs:    15,
		EmbedBatchSize:     64,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.MaxSubQueries < 1 || c.MaxSubQueries > HardMaxSubQueries:
		return fmt.Errorf("%w: max_sub_queries must be between 1 and %d", ErrInvalidConfig, HardMaxSubQueries)
	case c.MaxSourcesPerQuery < 1:
		return fmt.Errorf("%w: max_sources_per_query must be positive", ErrInvalidConfig)
	case c.MaxExtractURLs < 0:
		return fmt.Errorf("%w: max_extract_urls must not be negative", ErrInvalidConfig)
	case c.ChunkSize < 1:
		return fmt.Errorf("%w: chunk_size must be positive", ErrInvalidConfig)
	case c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize:
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size)", ErrInvalidConfig)
	case c.MaxChunksPerPage < 1:
		return fmt.Errorf("%w: max_chunks_per_page must be positive", ErrInvalidConfig)
	case c.ArchiveTTL < 0:
		return fmt.Errorf("%w: archive_ttl must not be negative", ErrInvalidConfig)
	case c.RerankThreshold < -1 || c.RerankThreshold > 1:
		return fmt.Errorf("%w: rerank_threshold must be between -1 and 1", ErrInvalidConfig)
	case c.MaxRerankedDocs < 1:
		return fmt.Errorf("%w: max_reranked_docs must be positive", ErrInvalidConfig)
	case c.EmbedBatchSize < 1:
		return fmt.Errorf("%w: embed_batch_size must be positive", ErrInvalidConfig)
	}
	return nil
}
