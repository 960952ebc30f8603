package perf

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/dedup"
	"github.com/poiesic/copilot/timeout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func TestParseComponent(t *testing.T) {
	tests := []struct {
		input   string
		want    Component
		wantErr bool
	}{
		{"", ComponentAll, false},
		{"all", ComponentAll, false},
		{" Cache ", ComponentCache, false},
		{"answer-cache", ComponentAnswerCache, false},
		{"document-cache", ComponentDocumentCache, false},
		{"deduplicator", ComponentDeduplicator, false},
		{"executor", ComponentExecutor, false},
		{"timeouts", ComponentTimeouts, false},
		{"database", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseComponent(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownComponent)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewManager(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		m := newTestManager(t)
		assert.Equal(t, 6, m.Executor.Capacity())
		assert.Equal(t, 60*time.Second, m.Timeouts.Timeout(ClassSynthesis))
		assert.Equal(t, 15*time.Second, m.Timeouts.Timeout(ClassSearch))

		s, err := m.Stats(ComponentCache)
		require.NoError(t, err)
		assert.Equal(t, 100, s.AnswerCache.Capacity)
		assert.Equal(t, 1000, s.DocumentCache.Capacity)
	})

	t.Run("invalid timeout bounds", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ClassBounds = map[string]timeout.Bounds{"search": {Base: time.Hour}}
		_, err := NewManager(cfg)
		assert.ErrorIs(t, err, timeout.ErrInvalidBounds)
	})
}

func TestStats(t *testing.T) {
	m := newTestManager(t)
	m.Answers.Set("a", core.Answer{Text: "hello"}, 0)

	t.Run("single component", func(t *testing.T) {
		s, err := m.Stats(ComponentAnswerCache)
		require.NoError(t, err)
		require.NotNil(t, s.AnswerCache)
		assert.Equal(t, 1, s.AnswerCache.Size)
		assert.Equal(t, int64(5), s.AnswerCache.ApproxBytes)
		assert.Nil(t, s.DocumentCache)
		assert.Nil(t, s.Executor)
		assert.Nil(t, s.Timeouts)
	})

	t.Run("all components", func(t *testing.T) {
		s, err := m.Stats(ComponentAll)
		require.NoError(t, err)
		assert.NotNil(t, s.AnswerCache)
		assert.NotNil(t, s.DocumentCache)
		assert.NotNil(t, s.Deduplicator)
		assert.NotNil(t, s.Executor)
		assert.NotNil(t, s.Timeouts)

		raw, err := json.Marshal(s)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"answer_cache"`)
		assert.Contains(t, string(raw), `"executor"`)
	})

	t.Run("unknown component", func(t *testing.T) {
		_, err := m.Stats("bogus")
		assert.ErrorIs(t, err, ErrUnknownComponent)
	})
}

func TestClear(t *testing.T) {
	m := newTestManager(t)
	m.Answers.Set("a", core.Answer{Text: "x"}, 0)
	m.Documents.Set("d", []core.SearchDocument{{URL: "https://example.com"}}, 0)
	m.Timeouts.Record(ClassSearch, time.Second, true, false)

	require.NoError(t, m.Clear(ComponentAnswerCache))
	assert.False(t, m.Answers.Has("a"))
	assert.True(t, m.Documents.Has("d"), "other components untouched")

	require.NoError(t, m.Clear(ComponentAll))
	assert.False(t, m.Documents.Has("d"))
	assert.Empty(t, m.Timeouts.Stats())

	assert.ErrorIs(t, m.Clear("bogus"), ErrUnknownComponent)
}

func TestCleanup(t *testing.T) {
	m := newTestManager(t)
	m.Answers.Set("fresh", core.Answer{}, time.Hour)
	m.Answers.Set("stale", core.Answer{}, time.Nanosecond)
	m.Documents.Set("stale", nil, time.Nanosecond)
	time.Sleep(time.Millisecond)

	removed, err := m.Cleanup(ComponentAnswerCache)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = m.Cleanup(ComponentCache)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = m.Cleanup(ComponentExecutor)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestDeduplicatorComponent(t *testing.T) {
	m := newTestManager(t)
	v, err := dedup.Do(context.Background(), m.Dedup, "k", func(ctx context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	s, err := m.Stats(ComponentDeduplicator)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.Deduplicator.Calls)
}
