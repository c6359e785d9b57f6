package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// TxFunc is the body of a transaction. All reads and writes inside it must use
// sc as their context so they join the session.
type TxFunc func(sc mongo.SessionContext) error

// WithTransaction runs fn inside a MongoDB multi-document transaction.
// The driver re-runs fn on transient errors such as write conflicts, so fn must
// not have side effects outside the database. Errors returned by fn abort the
// transaction and are returned unchanged.
func WithTransaction(ctx context.Context, database *mongo.Database, fn TxFunc) error {
	session, err := database.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txnOpts)
	return err
}
