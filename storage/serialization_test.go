package storage

import (
	"testing"
	"time"

	"github.com/poiesic/copilot/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalSummary(t *testing.T) {
	created := time.Date(2025, 3, 14, 15, 9, 26, 535000, time.UTC)

	tests := []struct {
		name    string
		summary core.Summary
	}{
		{"full summary", core.Summary{
			URL:       "https://example.com/photosynthesis",
			Title:     "Photosynthesis",
			Content:   "Plants convert light energy into chemical energy.",
			CreatedAt: created,
		}},
		{"empty fields", core.Summary{URL: "https://example.com"}},
		{"unicode content", core.Summary{
			URL:       "https://example.com/ü",
			Title:     "日本語",
			Content:   "Größe été \U0001F600",
			CreatedAt: created,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalSummary(&tt.summary)
			got, err := UnmarshalSummary(data)
			require.NoError(t, err)

			assert.Equal(t, tt.summary.URL, got.URL)
			assert.Equal(t, tt.summary.Title, got.Title)
			assert.Equal(t, tt.summary.Content, got.Content)
			assert.True(t, tt.summary.CreatedAt.Equal(got.CreatedAt),
				"expected %v, got %v", tt.summary.CreatedAt, got.CreatedAt)
		})
	}
}

func TestUnmarshalSummaryErrors(t *testing.T) {
	t.Run("truncated data", func(t *testing.T) {
		data := MarshalSummary(&core.Summary{URL: "https://example.com", Content: "some text"})
		_, err := UnmarshalSummary(data[:len(data)-3])
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		data := MarshalSummary(&core.Summary{URL: "https://example.com"})
		data = append(data, 0x01)
		_, err := UnmarshalSummary(data)
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})
}

func TestSummarySize(t *testing.T) {
	s := core.Summary{URL: "u", Title: "t", Content: "c", CreatedAt: time.UnixMicro(1)}
	assert.Equal(t, len(MarshalSummary(&s)), SummaryMUS.Size(s))
}
