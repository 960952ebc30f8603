package core

import (
	"encoding/hex"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// keySize is the BLAKE2b digest size used for cache and dedup keys.
// 16 bytes = 128 bits
const keySize = 16

// NormalizeQuery lowercases a query and collapses runs of whitespace so that
// trivially different spellings of the same query share keys.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// HashKey derives a deterministic key from a namespace and its semantically
// relevant parts using BLAKE2b. Parts are NUL-separated so that
// ("ab", "c") and ("a", "bc") never collide.
func HashKey(namespace string, parts ...string) string {
	h, _ := blake2b.New(keySize, nil)
	h.Write([]byte(namespace))
	for _, part := range parts {
		h.Write([]byte{0})
		h.Write([]byte(part))
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// HistoryDigest condenses chat history into a single key part.
func HistoryDigest(history []ChatTurn) string {
	parts := make([]string, 0, len(history)*2)
	for _, turn := range history {
		parts = append(parts, string(turn.Role), turn.Content)
	}
	return HashKey("history", parts...)
}
