package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// SessionTransactor runs units of work inside multi-document transactions.
// It requires a replica set or sharded cluster.
type SessionTransactor struct {
	client *mongo.Client
}

// NewSessionTransactor creates a SessionTransactor
func NewSessionTransactor(client *mongo.Client) *SessionTransactor {
	return &SessionTransactor{client: client}
}

// WithTransaction runs fn in a transaction. fn receives a session context and
// must pass it to every repository call. The driver retries fn on transient
// transaction errors, so fn must not have effects outside the store.
func (t *SessionTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.New(writeconcern.WMajority()))

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txnOpts)
	return err
}

// NoopTransactor runs fn directly, for standalone servers without transactions.
type NoopTransactor struct{}

// WithTransaction calls fn with ctx.
func (NoopTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
