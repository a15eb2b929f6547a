package resource

import (
	"context"

	"github.com/kinance/kinance-go/internal/client/apiclient"
)

// Transactions is the transactions API.
type Transactions struct {
	client *apiclient.Client
}

// NewTransactions creates a transactions client.
func NewTransactions(c *apiclient.Client) *Transactions {
	return &Transactions{client: c}
}

// List returns transactions matching filter.
func (t *Transactions) List(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	return apiclient.Result[[]Transaction](t.client.Get(ctx, apiclient.PathTransactions, filter.Query()))
}

// Get returns one transaction.
func (t *Transactions) Get(ctx context.Context, id string) (*Transaction, error) {
	tx, err := apiclient.Result[Transaction](t.client.Get(ctx, apiclient.TransactionPath(id), nil))
	if err != nil {
		return nil, err
	}
	return &tx, nil
}
