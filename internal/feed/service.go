// Package feed assembles the paginated news feed and serves the daily brief
// and Q&A context from the document store.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/seenimoa/financeflow/internal/news"
	"github.com/seenimoa/financeflow/internal/store"
	"github.com/seenimoa/financeflow/pkg/models"
)

// Defaults for Options.
const (
	DefaultMaxItems    = 50
	DefaultMaxSymbols  = 20
	DefaultPageSize    = 10
	DefaultContextSize = 10
)

var (
	// ErrNoStore is returned when the service runs without a store.
	ErrNoStore = errors.New("feed: store not available")

	// ErrNoBrief is returned when no daily brief exists yet.
	ErrNoBrief = store.ErrNotFound
)

// Quoter fetches live quotes. Failed symbols are left out of the result.
type Quoter interface {
	GetQuotes(ctx context.Context, symbols []string) map[string]models.StockData
}

// Options tunes the service. Zero values take the defaults.
type Options struct {
	MaxItems    int
	MaxSymbols  int
	ContextSize int
	Logger      *slog.Logger
}

// Service reads from the store and decorates the feed with quotes.
type Service struct {
	store       store.Store
	quotes      Quoter
	maxItems    int
	maxSymbols  int
	contextSize int
	log         *slog.Logger
}

// New creates a Service. st may be nil, in which case every store-backed
// call returns ErrNoStore.
func New(st store.Store, quotes Quoter, opts Options) *Service {
	s := &Service{
		store:       st,
		quotes:      quotes,
		maxItems:    opts.MaxItems,
		maxSymbols:  opts.MaxSymbols,
		contextSize: opts.ContextSize,
		log:         opts.Logger,
	}
	if s.maxItems <= 0 {
		s.maxItems = DefaultMaxItems
	}
	if s.maxSymbols <= 0 {
		s.maxSymbols = DefaultMaxSymbols
	}
	if s.contextSize <= 0 {
		s.contextSize = DefaultContextSize
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Available reports whether a store is configured.
func (s *Service) Available() bool { return s.store != nil }

// Pagination describes the requested page against the item ceiling.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
	TotalNews   int `json:"totalNews"`
	TotalPages  int `json:"totalPages"`
}

// Response is the main feed payload.
type Response struct {
	News       []news.Item                 `json:"news"`
	Stocks     map[string]models.StockData `json:"stocks"`
	Pagination Pagination                  `json:"pagination"`
}

// GetFeed returns one page of normalized news with quotes for the symbols it
// mentions. page and pageSize must be at least 1. A page past the ceiling is
// an empty result, not an error.
func (s *Service) GetFeed(ctx context.Context, page, pageSize int) (*Response, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("feed: invalid page %d or page size %d", page, pageSize)
	}

	totalPages := s.maxItems / pageSize
	if s.maxItems%pageSize != 0 {
		totalPages++
	}
	resp := &Response{
		News:   []news.Item{},
		Stocks: map[string]models.StockData{},
		Pagination: Pagination{
			CurrentPage: page,
			PageSize:    pageSize,
			TotalNews:   s.maxItems,
			TotalPages:  totalPages,
		},
	}

	// Compare pages before multiplying so huge values can't wrap the offset.
	if page-1 >= totalPages {
		return resp, nil
	}
	offset := (page - 1) * pageSize
	limit := min(pageSize, s.maxItems-offset)

	raws, err := s.store.NewsPage(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("feed: read page %d: %w", page, err)
	}

	for _, raw := range raws {
		doc, rec := news.Parse(raw.ID, raw.Data)
		if !rec.OK() {
			s.log.Debug("recovered malformed news document", "id", doc.ID, "fields", []string(rec))
		}
		item, ok := news.Normalize(doc)
		if !ok {
			s.log.Warn("could not parse publish time", "id", doc.ID, "published", doc.Published.Raw)
		}
		resp.News = append(resp.News, item)
	}

	symbols, seen := news.CollectSymbols(resp.News, s.maxSymbols)
	if len(seen) > len(symbols) {
		s.log.Debug("dropped symbols", "valid", symbols, "seen", seen)
	}
	if len(symbols) > 0 && s.quotes != nil {
		if quotes := s.quotes.GetQuotes(ctx, symbols); quotes != nil {
			resp.Stocks = quotes
		}
	}
	return resp, nil
}

// Brief is a daily brief document as served to clients.
type Brief map[string]any

// LatestBrief returns the newest daily brief, or ErrNoBrief when there is
// none. A structured generated_at is rendered as an RFC 3339 UTC string.
func (s *Service) LatestBrief(ctx context.Context) (Brief, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}

	raw, err := s.store.LatestBrief(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoBrief
		}
		return nil, fmt.Errorf("feed: latest brief: %w", err)
	}

	brief := make(Brief, len(raw.Data))
	for k, v := range raw.Data {
		brief[k] = v
	}
	if t, ok := brief["generated_at"].(time.Time); ok {
		brief["generated_at"] = t.UTC().Format(time.RFC3339)
	}
	return brief, nil
}

// RecentNews returns the newest documents used as Q&A context.
func (s *Service) RecentNews(ctx context.Context) ([]news.Document, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}

	raws, err := s.store.RecentNews(ctx, s.contextSize)
	if err != nil {
		return nil, fmt.Errorf("feed: recent news: %w", err)
	}

	docs := make([]news.Document, 0, len(raws))
	for _, raw := range raws {
		doc, _ := news.Parse(raw.ID, raw.Data)
		docs = append(docs, doc)
	}
	return docs, nil
}

// Ping checks the store, if any.
func (s *Service) Ping(ctx context.Context) error {
	if s.store == nil {
		return ErrNoStore
	}
	return s.store.Ping(ctx)
}
