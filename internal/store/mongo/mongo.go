// Package mongo is the MongoDB driver for store.Store.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/seenimoa/financeflow/internal/store"
)

// DefaultDatabase is used when neither the options nor the URI name one.
const DefaultDatabase = "financeflow"

// Options configures the driver.
type Options struct {
	URI         string
	Database    string
	Collections store.Collections
}

// Store reads news and briefs from MongoDB.
type Store struct {
	client *mongodriver.Client
	news   *mongodriver.Collection
	briefs *mongodriver.Collection
}

var _ store.Store = (*Store)(nil)

// New connects to MongoDB and pings the primary.
func New(ctx context.Context, opts Options) (*Store, error) {
	if strings.TrimSpace(opts.URI) == "" {
		return nil, store.ErrNoCredentials
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	dbName := opts.Database
	if dbName == "" {
		dbName = databaseFromURI(opts.URI)
	}
	db := cli.Database(dbName)
	cols := opts.Collections.WithDefaults()

	return &Store{
		client: cli,
		news:   db.Collection(cols.News),
		briefs: db.Collection(cols.Briefs),
	}, nil
}

// pageOptions sorts newest first and applies the offset window.
func pageOptions(offset, limit int) *options.FindOptions {
	o := options.Find().
		SetSort(bson.D{{Key: store.PublishedField, Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	if offset > 0 {
		o.SetSkip(int64(offset))
	}
	return o
}

// NewsPage reads a page ordered by publish time.
func (s *Store) NewsPage(ctx context.Context, offset, limit int) ([]store.RawDoc, error) {
	if limit <= 0 {
		return []store.RawDoc{}, nil
	}

	cur, err := s.news.Find(ctx, bson.D{}, pageOptions(offset, limit))
	if err != nil {
		return nil, fmt.Errorf("mongo news page: %w", err)
	}
	defer cur.Close(ctx)

	docs := make([]store.RawDoc, 0, limit)
	for cur.Next(ctx) {
		var m bson.M
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("mongo decode news: %w", err)
		}
		docs = append(docs, rawDoc(m))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo news cursor: %w", err)
	}
	return docs, nil
}

// RecentNews returns the n newest documents.
func (s *Store) RecentNews(ctx context.Context, n int) ([]store.RawDoc, error) {
	return s.NewsPage(ctx, 0, n)
}

// LatestBrief returns the brief with the greatest _id.
func (s *Store) LatestBrief(ctx context.Context) (store.RawDoc, error) {
	var m bson.M
	err := s.briefs.FindOne(ctx, bson.D{}, options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})).Decode(&m)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return store.RawDoc{}, store.ErrNotFound
	}
	if err != nil {
		return store.RawDoc{}, fmt.Errorf("mongo latest brief: %w", err)
	}
	return rawDoc(m), nil
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// rawDoc lifts _id out of the body and converts BSON values.
func rawDoc(m bson.M) store.RawDoc {
	doc := store.RawDoc{Data: make(map[string]any, len(m))}
	for k, v := range m {
		if k == "_id" {
			doc.ID = idString(v)
			continue
		}
		doc.Data[k] = plain(v)
	}
	return doc
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case primitive.ObjectID:
		return id.Hex()
	default:
		return fmt.Sprint(id)
	}
}

// plain converts BSON-specific values into plain Go values.
func plain(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC()
	case primitive.ObjectID:
		return t.Hex()
	case primitive.Decimal128:
		return t.String()
	case int32:
		return int64(t)
	case primitive.A:
		return plainSlice(t)
	case []any:
		return plainSlice(t)
	case primitive.M:
		return plainMap(t)
	case map[string]any:
		return plainMap(t)
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plain(e.Value)
		}
		return out
	default:
		return v
	}
}

func plainSlice(in []any) []any {
	out := make([]any, len(in))
	for i, e := range in {
		out[i] = plain(e)
	}
	return out
}

func plainMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, e := range in {
		out[k] = plain(e)
	}
	return out
}

// databaseFromURI pulls the database name out of the URI path.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return DefaultDatabase
}
