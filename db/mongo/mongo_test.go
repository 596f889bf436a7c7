package mongo

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type fakeClient struct {
	client           *mongo.Client
	pingErr          error
	pingCalls        int
	disconnectCalled bool
	databases        []string
}

func newFakeClient(t *testing.T) *fakeClient {
	t.Helper()

	c, err := mongo.NewClient(options.Client().ApplyURI("mongodb://example.com:27017"))
	if err != nil {
		t.Fatalf("failed to build fake client: %v", err)
	}
	return &fakeClient{client: c}
}

func (f *fakeClient) Ping(context.Context, *readpref.ReadPref) error {
	f.pingCalls++
	return f.pingErr
}

func (f *fakeClient) Database(name string, opts ...*options.DatabaseOptions) *mongo.Database {
	f.databases = append(f.databases, name)
	return f.client.Database(name, opts...)
}

func (f *fakeClient) Disconnect(context.Context) error {
	f.disconnectCalled = true
	return nil
}

func stubConnect(t *testing.T, fake client, err error) {
	t.Helper()
	prev := connectMongo
	connectMongo = func(context.Context, *options.ClientOptions) (client, error) {
		return fake, err
	}
	t.Cleanup(func() { connectMongo = prev })
}

func TestConnectSelectsDatabase(t *testing.T) {
	fake := newFakeClient(t)
	stubConnect(t, fake, nil)

	m := NewMongoDB("mongodb://stub", "MicroLoan")
	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}

	if len(fake.databases) != 1 || fake.databases[0] != "MicroLoan" {
		t.Fatalf("expected database MicroLoan, got %v", fake.databases)
	}
	if m.Loans().Name() != CollectionLoans || m.Users().Name() != CollectionUsers || m.Applications().Name() != CollectionApplications {
		t.Fatalf("unexpected collection names")
	}

	if err := m.Ping(context.Background()); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
	if fake.pingCalls != 2 {
		t.Fatalf("expected 2 pings, got %d", fake.pingCalls)
	}

	if err := m.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect returned error: %v", err)
	}
	if !fake.disconnectCalled {
		t.Fatalf("expected disconnect to be called")
	}
}

func TestConnectFailsOnPingAndDisconnects(t *testing.T) {
	fake := newFakeClient(t)
	fake.pingErr = errors.New("ping failed")
	stubConnect(t, fake, nil)

	m := NewMongoDB("mongodb://stub", "MicroLoan")
	if err := m.Connect(context.Background()); err == nil {
		t.Fatalf("expected ping error")
	}
	if !fake.disconnectCalled {
		t.Fatalf("expected disconnect after ping failure")
	}
	if err := m.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping on unconnected store to fail")
	}
}

func TestConnectPropagatesError(t *testing.T) {
	stubConnect(t, nil, errors.New("connect failed"))

	if err := NewMongoDB("mongodb://stub", "MicroLoan").Connect(context.Background()); err == nil {
		t.Fatalf("expected connection error")
	}
}

type indexCall struct {
	collection string
	models     []mongo.IndexModel
}

func TestEnsureIndexesCreatesUniqueIndexes(t *testing.T) {
	fake := newFakeClient(t)
	stubConnect(t, fake, nil)

	m := NewMongoDB("mongodb://stub", "MicroLoan")
	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}

	var calls []indexCall
	prev := createIndexes
	createIndexes = func(_ context.Context, coll *mongo.Collection, models []mongo.IndexModel) ([]string, error) {
		calls = append(calls, indexCall{collection: coll.Name(), models: models})
		return nil, nil
	}
	t.Cleanup(func() { createIndexes = prev })

	if err := m.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("EnsureIndexes returned error: %v", err)
	}

	if len(calls) != 2 {
		t.Fatalf("expected 2 index calls, got %d", len(calls))
	}
	if calls[0].collection != CollectionUsers {
		t.Fatalf("expected users first, got %s", calls[0].collection)
	}
	assertUniqueIndex(t, calls[0].models, []string{"email"})

	if calls[1].collection != CollectionApplications {
		t.Fatalf("expected applications second, got %s", calls[1].collection)
	}
	assertUniqueIndex(t, calls[1].models, []string{"userEmail", "loanTitle"})
}

func TestEnsureIndexesStopsOnError(t *testing.T) {
	fake := newFakeClient(t)
	stubConnect(t, fake, nil)

	m := NewMongoDB("mongodb://stub", "MicroLoan")
	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}

	errIndex := errors.New("index failure")
	calls := 0
	prev := createIndexes
	createIndexes = func(context.Context, *mongo.Collection, []mongo.IndexModel) ([]string, error) {
		calls++
		return nil, errIndex
	}
	t.Cleanup(func() { createIndexes = prev })

	err := m.EnsureIndexes(context.Background())
	if !errors.Is(err, errIndex) {
		t.Fatalf("expected wrapped index failure, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected to stop after the first failure, got %d calls", calls)
	}
}

func TestEnsureIndexesRequiresConnection(t *testing.T) {
	if err := NewMongoDB("mongodb://stub", "MicroLoan").EnsureIndexes(context.Background()); err == nil {
		t.Fatalf("expected error before Connect")
	}
}

func assertUniqueIndex(t *testing.T, models []mongo.IndexModel, keys []string) {
	t.Helper()

	if len(models) != 1 {
		t.Fatalf("expected 1 index model, got %d", len(models))
	}

	doc, ok := models[0].Keys.(bson.D)
	if !ok {
		t.Fatalf("expected bson.D keys, got %T", models[0].Keys)
	}
	if len(doc) != len(keys) {
		t.Fatalf("expected keys %v, got %v", keys, doc)
	}
	for i, k := range keys {
		if doc[i].Key != k {
			t.Fatalf("expected key %s at %d, got %s", k, i, doc[i].Key)
		}
	}

	if models[0].Options == nil || models[0].Options.Unique == nil || !*models[0].Options.Unique {
		t.Fatalf("expected unique option on %v", keys)
	}
}
