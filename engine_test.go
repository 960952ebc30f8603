package copilot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/copilot/ai/mock"
	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/perf"
	"github.com/poiesic/copilot/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestEngine builds an engine on mocks. Every text embeds to the same
// vector so all retrieved documents survive reranking.
func newTestEngine(t *testing.T, cfg *Config) (*Engine, *mock.MockSearchProvider) {
	t.Helper()
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range vectors {
			vectors[i] = []float32{0, 1, 0}
		}
		return vectors, nil
	}
	searcher := mock.NewMockSearchProvider()
	engine, err := NewEngine(cfg,
		WithProvider(mock.NewMockProviderWithServices(embedder, mock.NewMockChatModel())),
		WithSearchProvider(searcher),
		WithFetcher(mock.NewMockFetcher()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine, searcher
}

func drain(t *testing.T, events <-chan core.Event) []core.Event {
	t.Helper()
	var out []core.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("event stream did not close")
		}
	}
}

func TestNewEngine(t *testing.T) {
	t.Run("nil config uses defaults", func(t *testing.T) {
		engine, _ := newTestEngine(t, nil)
		assert.Equal(t, DefaultConfig().Search.URL, engine.Config().Search.URL)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Executor.MaxConcurrency = 0
		_, err := NewEngine(cfg, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
	})

	t.Run("invalid search url", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Search.URL = "not a url"
		_, err := NewEngine(cfg, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
	})

	t.Run("archive path that is a file", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Archive.Path = filepath.Join(t.TempDir(), "file")
		require.NoError(t, writeFile(cfg.Archive.Path))

		provider := mock.NewMockProvider()
		_, err := NewEngine(cfg, WithProvider(provider), WithSearchProvider(mock.NewMockSearchProvider()))
		require.Error(t, err)
		assert.True(t, provider.(*mock.MockProvider).Closed(), "partially built engine is released")
	})
}

func TestEngine_Run(t *testing.T) {
	engine, searcher := newTestEngine(t, nil)
	ctx := context.Background()

	events := drain(t, engine.Run(ctx, pipeline.Request{Query: "What is photosynthesis?"}))
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, core.EventEnd, last.Type)
	assert.Positive(t, searcher.CallCount())

	snap, err := engine.Stats("")
	require.NoError(t, err)
	require.NotNil(t, snap.AnswerCache)
	assert.Equal(t, 1, snap.AnswerCache.Size)
	require.NotNil(t, snap.Executor)
	assert.Positive(t, snap.Executor.Submitted)

	require.NoError(t, engine.Clear(string(perf.ComponentAnswerCache)))
	snap, err = engine.Stats(string(perf.ComponentAnswerCache))
	require.NoError(t, err)
	assert.Zero(t, snap.AnswerCache.Size)
	assert.Nil(t, snap.Executor)

	removed, err := engine.Cleanup("")
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, err = engine.Stats("bogus")
	assert.ErrorIs(t, err, perf.ErrUnknownComponent)
}

func TestEngine_Archive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Archive.Path = filepath.Join(t.TempDir(), "archive")
	cfg.Pipeline.ExtractionEnabled = true

	engine, _ := newTestEngine(t, cfg)
	ctx := context.Background()

	events := drain(t, engine.Run(ctx, pipeline.Request{Query: "What is photosynthesis?", Mode: core.ModeSpeed}))
	last := events[len(events)-1]
	require.Equal(t, core.EventEnd, last.Type)

	var extracted int
	for _, doc := range last.Sources {
		if doc.Extracted {
			extracted++
		}
	}
	assert.Positive(t, extracted)

	require.NoError(t, engine.PurgeArchive(ctx))
	require.NoError(t, engine.Close())
}

func TestEngine_PurgeArchiveDisabled(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	assert.NoError(t, engine.PurgeArchive(context.Background()))
}

func writeFile(path string) error {
	return os.WriteFile(path, []byte("x"), 0644)
}
