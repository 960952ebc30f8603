package core

import (
	"time"
)

// OptimizationMode trades answer quality against latency.
type OptimizationMode string

const (
	// ModeSpeed favors latency: fewer sub-queries.
	ModeSpeed OptimizationMode = "speed"
	// ModeBalanced is the default mode.
	ModeBalanced OptimizationMode = "balanced"
	// ModeQuality favors coverage: more sub-queries.
	ModeQuality OptimizationMode = "quality"
)

// MaxSubQueries returns the upper bound on generated sub-queries for the mode.
func (m OptimizationMode) MaxSubQueries() int {
	switch m {
	case ModeSpeed:
		return 2
	case ModeQuality:
		return 4
	default:
		return 3
	}
}

// ChatRole identifies the author of a chat turn.
type ChatRole string

const (
	// RoleUser represents the human asking questions.
	RoleUser ChatRole = "user"
	// RoleAssistant represents previous answers from the assistant.
	RoleAssistant ChatRole = "assistant"
)

// ChatTurn is a single message of the conversation preceding a query.
type ChatTurn struct {
	Role    ChatRole
	Content string
}

// SearchDocument is a retrieved web document.
// Stages never mutate a document in place; they produce modified copies.
type SearchDocument struct {
	Title       string
	URL         string
	Content     string
	SourceQuery string  // Sub-query that retrieved the document
	Score       float64 // Query similarity, set by reranking
	Extracted   bool    // Content was replaced by a full-page summary
}

// Answer is a synthesized response, cached at pipeline granularity.
type Answer struct {
	Query     string
	Mode      OptimizationMode
	Text      string
	Sources   []SearchDocument
	CreatedAt time.Time
}

// Summary is a condensed rendition of a fetched web page.
type Summary struct {
	URL       string
	Title     string
	Content   string
	CreatedAt time.Time
}

// DedupeByURL returns documents with duplicate URLs removed, keeping the
// first occurrence and preserving order.
func DedupeByURL(docs []SearchDocument) []SearchDocument {
	seen := make(map[string]bool, len(docs))
	result := make([]SearchDocument, 0, len(docs))
	for _, doc := range docs {
		if seen[doc.URL] {
			continue
		}
		seen[doc.URL] = true
		result = append(result, doc)
	}
	return result
}
