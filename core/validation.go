package core

import (
	"strings"
)

// MaxQueryLength bounds the size of a user query in bytes.
const MaxQueryLength = 4096

// ValidateQuery validates a user query according to domain rules.
// Validation rules:
//   - Query must contain non-whitespace text
//   - Query must not exceed MaxQueryLength bytes
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return Validation("query", ErrEmptyQuery, "%s", ErrEmptyQuery)
	}
	if len(query) > MaxQueryLength {
		return Validation("query", nil, "query exceeds %d bytes", MaxQueryLength)
	}
	return nil
}

// ParseMode converts a string to an OptimizationMode.
// The empty string selects ModeBalanced.
func ParseMode(s string) (OptimizationMode, error) {
	switch OptimizationMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeBalanced:
		return ModeBalanced, nil
	case ModeSpeed:
		return ModeSpeed, nil
	case ModeQuality:
		return ModeQuality, nil
	default:
		return "", Validation("mode", ErrInvalidMode, "%v: %q", ErrInvalidMode, s)
	}
}

// ValidateHistory validates chat turns preceding a query.
// Turns with unknown roles are rejected; empty turns are permitted.
func ValidateHistory(history []ChatTurn) error {
	for i, turn := range history {
		if turn.Role != RoleUser && turn.Role != RoleAssistant {
			return Validation("history", nil, "turn %d has invalid role %q", i, turn.Role)
		}
	}
	return nil
}
