package db

import "context"

// DB is a store connection owned by the process for its whole lifetime.
type DB interface {
	Connect(ctx context.Context) error
	Ping(ctx context.Context) error
	Disconnect(ctx context.Context) error
}
