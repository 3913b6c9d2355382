// Package storetest holds a behavior suite every store.Store driver must pass.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/financeflow/internal/store"
)

// NewsCount is the number of news documents Run seeds.
const NewsCount = 12

// Seed writes the given documents into the store under test.
type Seed func(news, briefs []store.RawDoc)

// Run checks s against the store contract. s must start empty; seed is
// called once after the empty-store checks.
func Run(t *testing.T, s store.Store, seed Seed) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, s.Ping(ctx))

	_, err := s.LatestBrief(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)

	page, err := s.NewsPage(ctx, 0, 5)
	require.NoError(t, err)
	assert.Empty(t, page)

	seed(News(), Briefs())

	t.Run("pages", func(t *testing.T) {
		tests := []struct {
			offset, limit int
			want          []string
		}{
			{0, 5, ids(0, 5)},
			{5, 5, ids(5, 10)},
			{10, 5, ids(10, NewsCount)},
			{15, 5, nil},
			{3, 4, ids(3, 7)},
		}
		for _, tt := range tests {
			got, err := s.NewsPage(ctx, tt.offset, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, docIDs(got), "offset=%d limit=%d", tt.offset, tt.limit)
		}
	})

	t.Run("recent", func(t *testing.T) {
		got, err := s.RecentNews(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, ids(0, 3), docIDs(got))

		_, ok := got[0].Data["published"].(time.Time)
		assert.True(t, ok, "published should convert to time.Time, got %T", got[0].Data["published"])

		analysis, ok := got[0].Data["analysis"].(map[string]any)
		require.True(t, ok, "analysis should convert to map[string]any, got %T", got[0].Data["analysis"])
		_, ok = analysis["affected_symbols"].([]any)
		assert.True(t, ok, "affected_symbols should convert to []any, got %T", analysis["affected_symbols"])
	})

	t.Run("latest brief", func(t *testing.T) {
		b, err := s.LatestBrief(ctx)
		require.NoError(t, err)
		assert.Equal(t, "2024-03-05_AM", b.ID)
		_, ok := b.Data["generated_at"].(time.Time)
		assert.True(t, ok)
	})
}

// News returns NewsCount documents; n00 is the newest.
func News() []store.RawDoc {
	base := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	docs := make([]store.RawDoc, NewsCount)
	for i := range docs {
		id := fmt.Sprintf("n%02d", i)
		docs[i] = store.RawDoc{ID: id, Data: map[string]any{
			"title":     "Headline " + id,
			"link":      "https://example.com/" + id,
			"source":    "Example",
			"published": base.Add(-time.Duration(i) * time.Hour),
			"content":   "Body of " + id,
			"analysis": map[string]any{
				"sentiment":        "Positive",
				"summary_en":       "Summary " + id,
				"affected_symbols": []any{"PTT", "AOT"},
			},
		}}
	}
	return docs
}

// Briefs returns three briefs out of key order.
func Briefs() []store.RawDoc {
	at := time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC)
	return []store.RawDoc{
		{ID: "2024-03-04_PM", Data: map[string]any{"headline": "pm", "generated_at": at.Add(-12 * time.Hour)}},
		{ID: "2024-03-05_AM", Data: map[string]any{"headline": "am", "generated_at": at}},
		{ID: "2024-03-04_AM", Data: map[string]any{"headline": "old", "generated_at": at.Add(-24 * time.Hour)}},
	}
}

func ids(from, to int) []string {
	out := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, fmt.Sprintf("n%02d", i))
	}
	return out
}

func docIDs(docs []store.RawDoc) []string {
	if len(docs) == 0 {
		return nil
	}
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
