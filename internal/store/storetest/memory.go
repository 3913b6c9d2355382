package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/seenimoa/financeflow/internal/store"
)

// Memory is an in-process store.Store for tests. Setting Err makes every
// call fail with it.
type Memory struct {
	mu     sync.Mutex
	news   []store.RawDoc
	briefs map[string]store.RawDoc

	Err   error
	Calls int
}

var _ store.Store = (*Memory)(nil)

// NewMemory returns a Memory holding the given documents.
func NewMemory(news, briefs []store.RawDoc) *Memory {
	m := &Memory{briefs: map[string]store.RawDoc{}}
	m.Put(news, briefs)
	return m
}

// Put adds documents.
func (m *Memory) Put(news, briefs []store.RawDoc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.news = append(m.news, news...)
	sort.SliceStable(m.news, func(i, j int) bool {
		return publishedOf(m.news[i]).After(publishedOf(m.news[j]))
	})
	for _, b := range briefs {
		m.briefs[b.ID] = b
	}
}

func publishedOf(d store.RawDoc) time.Time {
	t, _ := d.Data[store.PublishedField].(time.Time)
	return t
}

func (m *Memory) NewsPage(ctx context.Context, offset, limit int) ([]store.RawDoc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if offset < 0 || offset >= len(m.news) || limit <= 0 {
		return []store.RawDoc{}, nil
	}
	end := min(offset+limit, len(m.news))
	return append([]store.RawDoc(nil), m.news[offset:end]...), nil
}

func (m *Memory) RecentNews(ctx context.Context, n int) ([]store.RawDoc, error) {
	return m.NewsPage(ctx, 0, n)
}

func (m *Memory) LatestBrief(ctx context.Context) (store.RawDoc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return store.RawDoc{}, m.Err
	}
	var latest string
	for id := range m.briefs {
		if id > latest {
			latest = id
		}
	}
	if latest == "" {
		return store.RawDoc{}, store.ErrNotFound
	}
	return m.briefs[latest], nil
}

func (m *Memory) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

func (m *Memory) Close() error { return nil }
