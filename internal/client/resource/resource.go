package resource

import "github.com/kinance/kinance-go/internal/client/apiclient"

// Clients bundles the resource clients sharing one HTTP client core.
type Clients struct {
	Budgets      *Budgets
	Transactions *Transactions
	Receipts     *Receipts
	Users        *Users
}

// New creates all resource clients over c.
func New(c *apiclient.Client) *Clients {
	return &Clients{
		Budgets:      NewBudgets(c),
		Transactions: NewTransactions(c),
		Receipts:     NewReceipts(c),
		Users:        NewUsers(c),
	}
}
