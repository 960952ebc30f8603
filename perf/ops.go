package perf

import (
	"github.com/poiesic/copilot/cache"
	"github.com/poiesic/copilot/dedup"
	"github.com/poiesic/copilot/executor"
	"github.com/poiesic/copilot/timeout"
)

// Snapshot holds statistics of the requested components. Components not
// requested are nil.
type Snapshot struct {
	AnswerCache   *cache.Stats         `json:"answer_cache,omitempty"`
	DocumentCache *cache.Stats         `json:"document_cache,omitempty"`
	Deduplicator  *dedup.Stats         `json:"deduplicator,omitempty"`
	Executor      *executor.Stats      `json:"executor,omitempty"`
	Timeouts      []timeout.ClassStats `json:"timeouts,omitempty"`
}

// Stats returns statistics for component.
func (m *Manager) Stats(component Component) (Snapshot, error) {
	component, err := ParseComponent(string(component))
	if err != nil {
		return Snapshot{}, err
	}

	var s Snapshot
	if component.includes(ComponentAnswerCache) {
		stats := m.Answers.Stats()
		s.AnswerCache = &stats
	}
	if component.includes(ComponentDocumentCache) {
		stats := m.Documents.Stats()
		s.DocumentCache = &stats
	}
	if component.includes(ComponentDeduplicator) {
		stats := m.Dedup.Stats()
		s.Deduplicator = &stats
	}
	if component.includes(ComponentExecutor) {
		stats := m.Executor.Stats()
		s.Executor = &stats
	}
	if component.includes(ComponentTimeouts) {
		s.Timeouts = m.Timeouts.Stats()
		if s.Timeouts == nil {
			s.Timeouts = []timeout.ClassStats{}
		}
	}
	return s, nil
}

// Clear resets component: caches are emptied, pending dedup entries
// forgotten, executor counters zeroed and latency history discarded.
func (m *Manager) Clear(component Component) error {
	component, err := ParseComponent(string(component))
	if err != nil {
		return err
	}

	if component.includes(ComponentAnswerCache) {
		m.Answers.Clear()
	}
	if component.includes(ComponentDocumentCache) {
		m.Documents.Clear()
	}
	if component.includes(ComponentDeduplicator) {
		m.Dedup.Clear()
	}
	if component.includes(ComponentExecutor) {
		m.Executor.ResetStats()
	}
	if component.includes(ComponentTimeouts) {
		m.Timeouts.Reset()
	}
	m.logger.Info("cleared performance component", "component", component)
	return nil
}

// Cleanup removes expired cache entries and stale dedup entries and
// returns how many were removed. The executor and timeout controller have
// nothing to clean up.
func (m *Manager) Cleanup(component Component) (int, error) {
	component, err := ParseComponent(string(component))
	if err != nil {
		return 0, err
	}

	removed := 0
	if component.includes(ComponentAnswerCache) {
		removed += m.Answers.Cleanup()
	}
	if component.includes(ComponentDocumentCache) {
		removed += m.Documents.Cleanup()
	}
	if component.includes(ComponentDeduplicator) {
		removed += m.Dedup.Sweep()
	}
	m.logger.Debug("cleaned up performance component", "component", component, "removed", removed)
	return removed, nil
}
