package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5, cfg.MaxSourcesPerQuery)
	assert.Equal(t, 10, cfg.MaxExtractURLs)
	assert.InDelta(t, 0.7, cfg.RerankThreshold, 1e-9)
	assert.Equal(t, 15, cfg.MaxRerankedDocs)
	assert.False(t, cfg.ExtractionEnabled)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"too many sub-queries", func(c *Config) { c.MaxSubQueries = 6 }, "max_sub_queries"},
		{"zero sub-queries", func(c *Config) { c.MaxSubQueries = 0 }, "max_sub_queries"},
		{"zero sources", func(c *Config) { c.MaxSourcesPerQuery = 0 }, "max_sources_per_query"},
		{"negative extract urls", func(c *Config) { c.MaxExtractURLs = -1 }, "max_extract_urls"},
		{"overlap not below chunk size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }, "chunk_overlap"},
		{"threshold out of range", func(c *Config) { c.RerankThreshold = 1.5 }, "rerank_threshold"},
		{"zero reranked docs", func(c *Config) { c.MaxRerankedDocs = 0 }, "max_reranked_docs"},
		{"zero batch size", func(c *Config) { c.EmbedBatchSize = 0 }, "embed_batch_size"},
		{"negative archive ttl", func(c *Config) { c.ArchiveTTL = -1 }, "archive_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
