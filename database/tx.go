package database

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"inmoback/apperr"
)

// TxRunner runs callbacks inside a MongoDB session transaction so a
// subscription state change and its derived commission commit together.
// Requires the server to run as a replica set, which is the deployment
// baseline for this service.
type TxRunner struct {
	client *mongo.Client
}

func NewTxRunner(client *mongo.Client) *TxRunner {
	return &TxRunner{client: client}
}

func (r *TxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return apperr.Storage(err, "failed to start storage session")
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
