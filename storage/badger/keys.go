package badger

import "github.com/poiesic/copilot/core"

// summaryPrefix namespaces summary records. Keys are
// "sum:<hex digest of the URL>" so arbitrary URLs map to bounded keys.
const summaryPrefix = "sum"

// makeSummaryKey generates a key for a summary by URL.
func makeSummaryKey(url string) []byte {
	return []byte(core.HashKey(summaryPrefix, url))
}

// summaryKeyPrefix returns the prefix shared by all summary keys.
func summaryKeyPrefix() []byte {
	return []byte(summaryPrefix + ":")
}
