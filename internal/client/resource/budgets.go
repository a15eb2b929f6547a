package resource

import (
	"context"
	"errors"

	"github.com/kinance/kinance-go/internal/client/apiclient"
)

// ErrInvalidPeriod is returned for a budget period other than weekly,
// monthly or yearly.
var ErrInvalidPeriod = errors.New("period must be weekly, monthly or yearly")

// Budgets is the budgets API.
type Budgets struct {
	client *apiclient.Client
}

// NewBudgets creates a budgets client.
func NewBudgets(c *apiclient.Client) *Budgets {
	return &Budgets{client: c}
}

// List returns the user's budgets.
func (b *Budgets) List(ctx context.Context) ([]Budget, error) {
	return apiclient.Result[[]Budget](b.client.Get(ctx, apiclient.PathBudgets, nil))
}

// Get returns one budget.
func (b *Budgets) Get(ctx context.Context, id string) (*Budget, error) {
	budget, err := apiclient.Result[Budget](b.client.Get(ctx, apiclient.BudgetPath(id), nil))
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

// Create creates a budget.
func (b *Budgets) Create(ctx context.Context, req CreateBudgetRequest) (*Budget, error) {
	if !req.Period.Valid() {
		return nil, ErrInvalidPeriod
	}
	budget, err := apiclient.Result[Budget](b.client.Post(ctx, apiclient.PathBudgets, req))
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

// Update applies a partial update to a budget.
func (b *Budgets) Update(ctx context.Context, id string, req UpdateBudgetRequest) (*Budget, error) {
	if req.Period != nil && !req.Period.Valid() {
		return nil, ErrInvalidPeriod
	}
	budget, err := apiclient.Result[Budget](b.client.Put(ctx, apiclient.BudgetPath(id), req))
	if err != nil {
		return nil, err
	}
	return &budget, nil
}
