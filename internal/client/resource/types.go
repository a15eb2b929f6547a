package resource

import (
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kinance/kinance-go/internal/client/session"
)

// Period is a budget period.
type Period string

// Budget periods.
const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Valid reports whether p is a known period.
func (p Period) Valid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// Budget is a spending budget.
type Budget struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty" table:"wide"`
	Amount      Amount    `json:"amount"`
	Spent       Amount    `json:"spent"`
	Currency    string    `json:"currency"`
	Period      Period    `json:"period"`
	StartDate   string    `json:"startDate" table:"wide"`
	EndDate     string    `json:"endDate" table:"wide"`
	UserID      string    `json:"userId" table:"wide"`
	CreatedAt   time.Time `json:"createdAt" table:"wide"`
	UpdatedAt   time.Time `json:"updatedAt" table:"wide"`
}

// Remaining returns Amount minus Spent.
func (b *Budget) Remaining() Amount {
	return Amount{b.Amount.Sub(b.Spent.Decimal)}
}

// CreateBudgetRequest is the body of POST /budgets.
type CreateBudgetRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Amount      Amount `json:"amount"`
	Currency    string `json:"currency"`
	Period      Period `json:"period"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

// UpdateBudgetRequest is a partial update; nil fields are not sent.
type UpdateBudgetRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Amount      *Amount `json:"amount,omitempty"`
	Currency    *string `json:"currency,omitempty"`
	Period      *Period `json:"period,omitempty"`
	StartDate   *string `json:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
}

// TransactionType distinguishes income from expenses.
type TransactionType string

// Transaction types.
const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Transaction is a money movement.
type Transaction struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      Amount          `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Type        TransactionType `json:"type"`
	Date        string          `json:"date"`
	BudgetID    string          `json:"budgetId,omitempty" table:"wide"`
	ReceiptID   string          `json:"receiptId,omitempty" table:"wide"`
	UserID      string          `json:"userId" table:"wide"`
	CreatedAt   time.Time       `json:"createdAt" table:"wide"`
	UpdatedAt   time.Time       `json:"updatedAt" table:"wide"`
}

// TransactionFilter narrows a transaction listing. Zero fields are omitted.
type TransactionFilter struct {
	StartDate string
	EndDate   string
	Category  string
	Type      TransactionType
	BudgetID  string
	Page      int
	Limit     int
}

// Query encodes the filter as URL query parameters.
func (f TransactionFilter) Query() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("start_date", f.StartDate)
	set("end_date", f.EndDate)
	set("category", f.Category)
	set("type", string(f.Type))
	set("budget_id", f.BudgetID)
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// Receipt is an uploaded receipt image.
type Receipt struct {
	ID            string       `json:"id"`
	Filename      string       `json:"filename"`
	URL           string       `json:"url" table:"wide"`
	ProcessedData *ReceiptData `json:"processedData,omitempty" table:"wide"`
	UserID        string       `json:"userId" table:"wide"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt" table:"wide"`
}

// ReceiptData is what OCR extracted from a receipt.
type ReceiptData struct {
	Amount   *Amount       `json:"amount,omitempty"`
	Date     string        `json:"date,omitempty"`
	Merchant string        `json:"merchant,omitempty"`
	Items    []ReceiptItem `json:"items,omitempty"`
}

// ReceiptItem is one line of a receipt.
type ReceiptItem struct {
	Name     string `json:"name"`
	Price    Amount `json:"price"`
	Quantity int    `json:"quantity"`
}

// Family groups users sharing budgets.
type Family struct {
	ID        uuid.UUID             `json:"id"`
	Name      string                `json:"name"`
	Members   []session.UserProfile `json:"members"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}
