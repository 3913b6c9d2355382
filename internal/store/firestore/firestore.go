// Package firestore is the Cloud Firestore driver for store.Store.
package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/seenimoa/financeflow/internal/store"
)

// DefaultKeyFile is the service-account key looked up in the working directory.
const DefaultKeyFile = "firebase-key.json"

// emulatorProjectID is used against the emulator when no project is configured.
const emulatorProjectID = "demo-financeflow"

// Options configures the driver. CredentialsJSON wins over KeyFile.
type Options struct {
	CredentialsJSON string
	KeyFile         string
	ProjectID       string
	Collections     store.Collections
}

// Store reads news and briefs from Firestore.
type Store struct {
	client *firestore.Client
	news   *firestore.CollectionRef
	briefs *firestore.CollectionRef
}

var _ store.Store = (*Store)(nil)

// New connects to Firestore. It returns store.ErrNoCredentials when neither
// inline credentials nor a readable key file is available and no emulator is
// configured.
func New(ctx context.Context, opts Options) (*Store, error) {
	clientOpts, err := clientOptions(opts)
	if err != nil {
		return nil, err
	}

	project := opts.ProjectID
	if project == "" {
		project = firestore.DetectProjectID
		if len(clientOpts) == 0 {
			project = emulatorProjectID
		}
	}

	client, err := firestore.NewClient(ctx, project, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: connect: %w", err)
	}

	cols := opts.Collections.WithDefaults()
	return &Store{
		client: client,
		news:   client.Collection(cols.News),
		briefs: client.Collection(cols.Briefs),
	}, nil
}

// clientOptions picks the credential source: inline JSON first, then the
// key file. With neither, only the emulator is usable.
func clientOptions(opts Options) ([]option.ClientOption, error) {
	if raw := strings.TrimSpace(opts.CredentialsJSON); raw != "" {
		if !json.Valid([]byte(raw)) {
			return nil, fmt.Errorf("firestore: inline credentials are not valid JSON")
		}
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}, nil
	}

	keyFile := opts.KeyFile
	if keyFile == "" {
		keyFile = DefaultKeyFile
	}
	if info, err := os.Stat(keyFile); err == nil && !info.IsDir() {
		return []option.ClientOption{option.WithCredentialsFile(keyFile)}, nil
	}

	if os.Getenv("FIRESTORE_EMULATOR_HOST") != "" {
		return nil, nil
	}
	return nil, store.ErrNoCredentials
}

// NewsPage reads a page ordered by publish time. The offset is applied by
// reading the skipped documents and anchoring the cursor after the last one.
func (s *Store) NewsPage(ctx context.Context, offset, limit int) ([]store.RawDoc, error) {
	q := s.news.OrderBy(store.PublishedField, firestore.Desc)
	head := func(n int) ([]*firestore.DocumentSnapshot, error) {
		return q.Limit(n).Documents(ctx).GetAll()
	}
	after := func(anchor *firestore.DocumentSnapshot, n int) ([]*firestore.DocumentSnapshot, error) {
		return q.StartAfter(anchor).Limit(n).Documents(ctx).GetAll()
	}

	snaps, err := cursorPage(offset, limit, head, after)
	if err != nil {
		return nil, fmt.Errorf("firestore: news page: %w", err)
	}

	docs := make([]store.RawDoc, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, rawDoc(snap))
	}
	return docs, nil
}

// cursorPage emulates offset paging on a cursor API. head returns the first
// n results in order; after returns the n results that follow anchor.
func cursorPage[T any](offset, limit int, head func(n int) ([]T, error), after func(anchor T, n int) ([]T, error)) ([]T, error) {
	if limit <= 0 {
		return nil, nil
	}
	if offset <= 0 {
		return head(limit)
	}

	skipped, err := head(offset)
	if err != nil {
		return nil, fmt.Errorf("cursor: %w", err)
	}
	if len(skipped) < offset {
		return nil, nil
	}
	return after(skipped[len(skipped)-1], limit)
}

// RecentNews returns the n newest documents.
func (s *Store) RecentNews(ctx context.Context, n int) ([]store.RawDoc, error) {
	return s.NewsPage(ctx, 0, n)
}

// LatestBrief returns the brief with the greatest document ID.
func (s *Store) LatestBrief(ctx context.Context) (store.RawDoc, error) {
	it := s.briefs.OrderBy(firestore.DocumentID, firestore.Desc).Limit(1).Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if errors.Is(err, iterator.Done) {
		return store.RawDoc{}, store.ErrNotFound
	}
	if err != nil {
		return store.RawDoc{}, fmt.Errorf("firestore: latest brief: %w", err)
	}
	return rawDoc(snap), nil
}

// Ping issues a single-document read.
func (s *Store) Ping(ctx context.Context) error {
	it := s.briefs.Limit(1).Documents(ctx)
	defer it.Stop()
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore: ping: %w", err)
	}
	return nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func rawDoc(snap *firestore.DocumentSnapshot) store.RawDoc {
	data := snap.Data()
	for k, v := range data {
		data[k] = plain(v)
	}
	return store.RawDoc{ID: snap.Ref.ID, Data: data}
}

// plain converts Firestore-specific values into plain Go values.
func plain(v any) any {
	switch t := v.(type) {
	case *firestore.DocumentRef:
		if t == nil {
			return nil
		}
		return t.Path
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plain(e)
		}
		return out
	default:
		return v
	}
}
