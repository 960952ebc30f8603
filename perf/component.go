package perf

import (
	"fmt"
	"strings"
)

// Component names a managed part of the performance layer.
type Component string

const (
	ComponentAll           Component = "all"
	ComponentCache         Component = "cache" // Both caches
	ComponentAnswerCache   Component = "answer-cache"
	ComponentDocumentCache Component = "document-cache"
	ComponentDeduplicator  Component = "deduplicator"
	ComponentExecutor      Component = "executor"
	ComponentTimeouts      Component = "timeouts"
)

// Components lists every valid component name.
var Components = []Component{
	ComponentAll,
	ComponentCache,
	ComponentAnswerCache,
	ComponentDocumentCache,
	ComponentDeduplicator,
	ComponentExecutor,
	ComponentTimeouts,
}

// ParseComponent converts a name into a Component. Empty means all.
func ParseComponent(s string) (Component, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ComponentAll, nil
	}
	for _, c := range Components {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownComponent, s)
}

func (c Component) includes(other Component) bool {
	switch c {
	case ComponentAll:
		return true
	case ComponentCache:
		return other == ComponentAnswerCache || other == ComponentDocumentCache
	default:
		return c == other
	}
}
