package feed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/financeflow/internal/store"
	"github.com/seenimoa/financeflow/internal/store/storetest"
	"github.com/seenimoa/financeflow/pkg/models"
)

type fakeQuoter struct {
	calls   int
	symbols []string
}

func (f *fakeQuoter) GetQuotes(ctx context.Context, symbols []string) map[string]models.StockData {
	f.calls++
	f.symbols = symbols
	out := map[string]models.StockData{}
	for _, s := range symbols {
		out[s] = models.StockData{Symbol: s, Price: 10, Change: 1, PercentChange: 11.11}
	}
	return out
}

func quietOpts() Options {
	return Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func newService(t *testing.T, mem *storetest.Memory, q Quoter) *Service {
	t.Helper()
	return New(mem, q, quietOpts())
}

func TestGetFeedFirstPage(t *testing.T) {
	mem := storetest.NewMemory(storetest.News(), nil)
	q := &fakeQuoter{}
	s := newService(t, mem, q)

	resp, err := s.GetFeed(context.Background(), 1, 5)
	require.NoError(t, err)

	require.Len(t, resp.News, 5)
	assert.Equal(t, "n00", resp.News[0].ID)
	assert.Equal(t, "5 มี.ค. 2024, 12:00", resp.News[0].Published)
	assert.Equal(t, "Bullish", resp.News[0].Analysis.Impact)

	assert.Equal(t, []string{"AOT", "PTT"}, q.symbols)
	assert.Len(t, resp.Stocks, 2)
	assert.Equal(t, Pagination{CurrentPage: 1, PageSize: 5, TotalNews: 50, TotalPages: 10}, resp.Pagination)
}

func TestGetFeedBeyondCeiling(t *testing.T) {
	mem := storetest.NewMemory(storetest.News(), nil)
	q := &fakeQuoter{}
	s := newService(t, mem, q)

	resp, err := s.GetFeed(context.Background(), 6, 10)
	require.NoError(t, err)

	assert.Empty(t, resp.News)
	assert.NotNil(t, resp.News)
	assert.NotNil(t, resp.Stocks)
	assert.Equal(t, 5, resp.Pagination.TotalPages)
	assert.Equal(t, 0, mem.Calls)
	assert.Equal(t, 0, q.calls)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"news":[],"stocks":{},"pagination":{"currentPage":6,"pageSize":10,"totalNews":50,"totalPages":5}}`, string(data))
}

func TestGetFeedHugePageIsBeyondCeiling(t *testing.T) {
	tests := []struct {
		name           string
		page, pageSize int
	}{
		{"offset would wrap negative", 6148914691236517206, 3},
		{"max page", math.MaxInt, 10},
		{"max page and size", math.MaxInt, math.MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := storetest.NewMemory(storetest.News(), nil)
			s := newService(t, mem, &fakeQuoter{})

			resp, err := s.GetFeed(context.Background(), tt.page, tt.pageSize)
			require.NoError(t, err)
			assert.Empty(t, resp.News)
			assert.Equal(t, 0, mem.Calls)
			assert.Equal(t, tt.page, resp.Pagination.CurrentPage)
		})
	}
}

func TestGetFeedMaxPageSize(t *testing.T) {
	mem := storetest.NewMemory(storetest.News(), nil)
	s := newService(t, mem, &fakeQuoter{})

	resp, err := s.GetFeed(context.Background(), 1, math.MaxInt)
	require.NoError(t, err)
	assert.Len(t, resp.News, storetest.NewsCount)
	assert.Equal(t, 1, resp.Pagination.TotalPages)
}

func TestGetFeedClampsLastPageToCeiling(t *testing.T) {
	mem := storetest.NewMemory(storetest.News(), nil)
	s := New(mem, &fakeQuoter{}, Options{MaxItems: 7, Logger: quietOpts().Logger})

	resp, err := s.GetFeed(context.Background(), 2, 5)
	require.NoError(t, err)
	require.Len(t, resp.News, 2)
	assert.Equal(t, "n05", resp.News[0].ID)
	assert.Equal(t, "n06", resp.News[1].ID)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
}

func TestGetFeedNoSymbolsSkipsQuotes(t *testing.T) {
	mem := storetest.NewMemory([]store.RawDoc{
		{ID: "a", Data: map[string]any{"title": "no analysis", "published": "not a date"}},
	}, nil)
	q := &fakeQuoter{}
	s := newService(t, mem, q)

	resp, err := s.GetFeed(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, resp.News, 1)
	assert.Equal(t, "not a date", resp.News[0].Published)
	assert.Equal(t, []string{}, resp.News[0].Analysis.AffectedSymbols)
	assert.Equal(t, 0, q.calls)
	assert.NotNil(t, resp.Stocks)
}

func TestGetFeedCapsSymbols(t *testing.T) {
	var symbols []any
	for c := 'A'; c <= 'Z'; c++ {
		symbols = append(symbols, string(c)+"Q", "bad symbol")
	}
	mem := storetest.NewMemory([]store.RawDoc{
		{ID: "a", Data: map[string]any{"analysis": map[string]any{"affected_symbols": symbols}}},
	}, nil)
	q := &fakeQuoter{}
	s := newService(t, mem, q)

	_, err := s.GetFeed(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Len(t, q.symbols, DefaultMaxSymbols)
	assert.NotContains(t, q.symbols, "BAD SYMBOL")
}

func TestGetFeedStoreError(t *testing.T) {
	mem := storetest.NewMemory(nil, nil)
	mem.Err = errors.New("unavailable")
	s := newService(t, mem, &fakeQuoter{})

	resp, err := s.GetFeed(context.Background(), 1, 10)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, mem.Err)
}

func TestNoStore(t *testing.T) {
	s := New(nil, &fakeQuoter{}, quietOpts())
	ctx := context.Background()
	assert.False(t, s.Available())

	_, err := s.GetFeed(ctx, 1, 10)
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = s.LatestBrief(ctx)
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = s.RecentNews(ctx)
	assert.ErrorIs(t, err, ErrNoStore)
	assert.ErrorIs(t, s.Ping(ctx), ErrNoStore)
}

func TestLatestBrief(t *testing.T) {
	mem := storetest.NewMemory(nil, storetest.Briefs())
	s := newService(t, mem, nil)

	b, err := s.LatestBrief(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "am", b["headline"])
	assert.Equal(t, "2024-03-05T01:00:00Z", b["generated_at"])
}

func TestLatestBriefConvertsToUTC(t *testing.T) {
	ict := time.FixedZone("ICT", 7*3600)
	mem := storetest.NewMemory(nil, []store.RawDoc{
		{ID: "2024-03-05_PM", Data: map[string]any{"generated_at": time.Date(2024, 3, 5, 18, 0, 0, 0, ict)}},
	})
	s := newService(t, mem, nil)

	b, err := s.LatestBrief(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05T11:00:00Z", b["generated_at"])
}

func TestLatestBriefNotFound(t *testing.T) {
	s := newService(t, storetest.NewMemory(nil, nil), nil)
	_, err := s.LatestBrief(context.Background())
	assert.ErrorIs(t, err, ErrNoBrief)
}

func TestRecentNews(t *testing.T) {
	mem := storetest.NewMemory(storetest.News(), nil)
	s := New(mem, nil, Options{ContextSize: 3, Logger: quietOpts().Logger})

	docs, err := s.RecentNews(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "n00", docs[0].ID)
	require.NotNil(t, docs[0].Analysis)
	assert.Equal(t, "Summary n00", docs[0].Analysis.SummaryEN)
}
