package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	CollectionUsers        = "users"
	CollectionLoans        = "loans"
	CollectionApplications = "appliedLoans"
)

// client is the subset of *mongo.Client used here, so tests can run without
// a live deployment.
type client interface {
	Ping(context.Context, *readpref.ReadPref) error
	Database(string, ...*options.DatabaseOptions) *mongo.Database
	Disconnect(context.Context) error
}

var connectMongo = func(ctx context.Context, opts *options.ClientOptions) (client, error) {
	return mongo.Connect(ctx, opts)
}

var createIndexes = func(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) ([]string, error) {
	return coll.Indexes().CreateMany(ctx, models)
}

type MongoDB struct {
	URL    string
	DBName string

	client client
	db     *mongo.Database
}

func NewMongoDB(url, dbName string) *MongoDB {
	return &MongoDB{URL: url, DBName: dbName}
}

func (m *MongoDB) Connect(ctx context.Context) error {
	c, err := connectMongo(ctx, options.Client().ApplyURI(m.URL))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	if err := c.Ping(ctx, readpref.Primary()); err != nil {
		_ = c.Disconnect(ctx)
		return fmt.Errorf("ping mongo: %w", err)
	}

	m.client = c
	m.db = c.Database(m.DBName)
	return nil
}

func (m *MongoDB) Ping(ctx context.Context) error {
	if m.client == nil {
		return errors.New("mongo client is not connected")
	}
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoDB) Disconnect(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) Users() *mongo.Collection        { return m.db.Collection(CollectionUsers) }
func (m *MongoDB) Loans() *mongo.Collection        { return m.db.Collection(CollectionLoans) }
func (m *MongoDB) Applications() *mongo.Collection { return m.db.Collection(CollectionApplications) }

// EnsureIndexes creates the unique indexes that back duplicate detection:
// one user per email, one application per (userEmail, loanTitle).
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	if m.db == nil {
		return errors.New("mongo client is not connected")
	}

	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
	}
	if _, err := createIndexes(ctx, m.Users(), userIndexes); err != nil {
		return fmt.Errorf("create users indexes: %w", err)
	}

	applicationIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userEmail", Value: 1}, {Key: "loanTitle", Value: 1}},
			Options: options.Index().SetName("user_email_loan_title_unique").SetUnique(true),
		},
	}
	if _, err := createIndexes(ctx, m.Applications(), applicationIndexes); err != nil {
		return fmt.Errorf("create applications indexes: %w", err)
	}

	return nil
}
