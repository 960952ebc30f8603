package badger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) storage.SummaryStore {
	t.Helper()
	store, err := NewMemorySummaryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSummaryStore_PutGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	summary := &core.Summary{
		URL:     "https://example.com/photosynthesis",
		Title:   "Photosynthesis",
		Content: "Plants convert light into chemical energy.",
	}
	require.NoError(t, store.PutSummary(ctx, summary, 0))
	assert.False(t, summary.CreatedAt.IsZero(), "CreatedAt is stamped on put")

	got, err := store.GetSummary(ctx, summary.URL)
	require.NoError(t, err)
	assert.Equal(t, summary.URL, got.URL)
	assert.Equal(t, summary.Title, got.Title)
	assert.Equal(t, summary.Content, got.Content)
	assert.True(t, summary.CreatedAt.Truncate(time.Microsecond).Equal(got.CreatedAt))
}

func TestSummaryStore_Overwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	url := "https://example.com/page"

	require.NoError(t, store.PutSummary(ctx, &core.Summary{URL: url, Content: "old"}, 0))
	require.NoError(t, store.PutSummary(ctx, &core.Summary{URL: url, Content: "new"}, 0))

	got, err := store.GetSummary(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Content)
}

func TestSummaryStore_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetSummary(ctx, "https://example.com/missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.DeleteSummary(ctx, "https://example.com/missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSummaryStore_InvalidRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.PutSummary(ctx, nil, 0), storage.ErrInvalidRecord)
	assert.ErrorIs(t, store.PutSummary(ctx, &core.Summary{Content: "no url"}, 0), storage.ErrInvalidRecord)
}

func TestSummaryStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	url := "https://example.com/page"

	require.NoError(t, store.PutSummary(ctx, &core.Summary{URL: url, Content: "text"}, 0))
	require.NoError(t, store.DeleteSummary(ctx, url))

	_, err := store.GetSummary(ctx, url)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSummaryStore_Purge(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	urls := []string{"https://a.example", "https://b.example", "https://c.example"}
	for _, url := range urls {
		require.NoError(t, store.PutSummary(ctx, &core.Summary{URL: url, Content: url}, 0))
	}

	require.NoError(t, store.Purge(ctx))
	for _, url := range urls {
		_, err := store.GetSummary(ctx, url)
		assert.ErrorIs(t, err, storage.ErrNotFound, url)
	}
}

func TestSummaryStore_TTL(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for entry expiry")
	}
	store := newTestStore(t)
	ctx := context.Background()
	url := "https://example.com/short-lived"

	require.NoError(t, store.PutSummary(ctx, &core.Summary{URL: url, Content: "soon gone"}, time.Second))
	_, err := store.GetSummary(ctx, url)
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	_, err = store.GetSummary(ctx, url)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSummaryStore_CanceledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.GetSummary(ctx, "https://example.com")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.PutSummary(ctx, &core.Summary{URL: "https://example.com"}, 0), context.Canceled)
}

func TestSummaryStore_Persistence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	ctx := context.Background()
	url := "https://example.com/persisted"

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	store, err := NewSummaryStore(backend)
	require.NoError(t, err)
	require.NoError(t, store.PutSummary(ctx, &core.Summary{URL: url, Content: "kept"}, 0))
	require.NoError(t, store.Close())
	assert.False(t, backend.IsClosed(), "store does not close a borrowed backend")
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()
	store, err = NewSummaryStore(backend)
	require.NoError(t, err)

	got, err := store.GetSummary(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Content)
}

func TestNewSummaryStore_NilBackend(t *testing.T) {
	_, err := NewSummaryStore(nil)
	assert.Error(t, err)
}
