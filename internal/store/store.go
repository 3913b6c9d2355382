// Package store defines the read-only document store the backend serves
// news and daily briefs from. Drivers live in subpackages.
package store

import (
	"context"
	"errors"
)

// Default collection names, shared with the ingestion process.
const (
	DefaultNewsCollection   = "analyzed_news"
	DefaultBriefsCollection = "daily_briefs"
)

// PublishedField is the news field pages are ordered by, newest first.
const PublishedField = "published"

var (
	// ErrNotFound is returned when a requested document does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrNoCredentials is returned when a driver has nothing to
	// authenticate with.
	ErrNoCredentials = errors.New("store: no credentials configured")
)

// RawDoc is a stored document as plain Go values: strings, float64/int64,
// bool, time.Time, []any and map[string]any. Driver-specific types are
// converted before a RawDoc leaves the driver.
type RawDoc struct {
	ID   string
	Data map[string]any
}

// Store reads news and briefs. Implementations are safe for concurrent use.
type Store interface {
	// NewsPage returns up to limit news documents ordered by publish time
	// descending, skipping the first offset.
	NewsPage(ctx context.Context, offset, limit int) ([]RawDoc, error)

	// RecentNews returns the n most recent news documents.
	RecentNews(ctx context.Context, n int) ([]RawDoc, error)

	// LatestBrief returns the brief with the greatest document ID, or
	// ErrNotFound when there is none.
	LatestBrief(ctx context.Context) (RawDoc, error)

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases the underlying client.
	Close() error
}

// Collections names the collections a driver reads.
type Collections struct {
	News   string
	Briefs string
}

// WithDefaults fills empty names with the defaults.
func (c Collections) WithDefaults() Collections {
	if c.News == "" {
		c.News = DefaultNewsCollection
	}
	if c.Briefs == "" {
		c.Briefs = DefaultBriefsCollection
	}
	return c
}
