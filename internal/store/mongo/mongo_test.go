package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/seenimoa/financeflow/internal/store"
	"github.com/seenimoa/financeflow/internal/store/storetest"
)

const testTimeout = 10 * time.Second

// TestMain starts MongoDB in a container when GO_TEST_INTEGRATION is set and
// exposes it through MONGODB_TEST_URI.
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7.0",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo testcontainer: %v\n", err)
		os.Exit(1)
	}

	host, err := mongoC.Host(ctx)
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}
	port, err := mongoC.MappedPort(ctx, "27017/tcp")
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mapped port: %v\n", err)
		os.Exit(1)
	}
	_ = os.Setenv("MONGODB_TEST_URI", fmt.Sprintf("mongodb://%s:%s", host, port.Port()))

	code := m.Run()
	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

func TestNewRequiresURI(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.ErrorIs(t, err, store.ErrNoCredentials)
}

func TestDatabaseFromURI(t *testing.T) {
	assert.Equal(t, "news", databaseFromURI("mongodb://localhost:27017/news"))
	assert.Equal(t, "news", databaseFromURI("mongodb+srv://u:p@cluster.example.net/news?retryWrites=true"))
	assert.Equal(t, DefaultDatabase, databaseFromURI("mongodb://localhost:27017"))
	assert.Equal(t, DefaultDatabase, databaseFromURI("::bad"))
}

func TestPageOptions(t *testing.T) {
	o := pageOptions(20, 10)
	require.NotNil(t, o.Skip)
	require.NotNil(t, o.Limit)
	assert.Equal(t, int64(20), *o.Skip)
	assert.Equal(t, int64(10), *o.Limit)

	first := pageOptions(0, 10)
	assert.Nil(t, first.Skip)
}

func TestRawDocConvertsBSON(t *testing.T) {
	at := time.Date(2024, 3, 5, 9, 7, 0, 0, time.UTC)
	oid := primitive.NewObjectID()

	doc := rawDoc(bson.M{
		"_id":       oid,
		"title":     "t",
		"published": primitive.NewDateTimeFromTime(at),
		"count":     int32(4),
		"analysis": bson.M{
			"affected_symbols": bson.A{"PTT", "AOT"},
			"nested":           bson.D{{Key: "k", Value: primitive.NewDateTimeFromTime(at)}},
		},
	})

	assert.Equal(t, oid.Hex(), doc.ID)
	assert.NotContains(t, doc.Data, "_id")
	assert.Equal(t, at, doc.Data["published"])
	assert.Equal(t, int64(4), doc.Data["count"])

	analysis, ok := doc.Data["analysis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"PTT", "AOT"}, analysis["affected_symbols"])
	assert.Equal(t, map[string]any{"k": at}, analysis["nested"])
}

func TestRawDocStringID(t *testing.T) {
	doc := rawDoc(bson.M{"_id": "2024-03-05_AM"})
	assert.Equal(t, "2024-03-05_AM", doc.ID)
}

func TestIntegrationStore(t *testing.T) {
	base := os.Getenv("MONGODB_TEST_URI")
	if base == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	s, err := New(ctx, Options{URI: base, Database: "financeflow_test_" + uuid.NewString()})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		_ = s.news.Database().Drop(ctx)
		_ = s.Close()
	})

	storetest.Run(t, s, func(news, briefs []store.RawDoc) {
		for _, d := range append(news, briefs...) {
			coll := s.news
			if _, isBrief := d.Data["generated_at"]; isBrief {
				coll = s.briefs
			}
			body := bson.M{"_id": d.ID}
			for k, v := range d.Data {
				body[k] = v
			}
			_, err := coll.InsertOne(ctx, body)
			require.NoError(t, err)
		}
	})
}
