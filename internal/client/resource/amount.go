package resource

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a money value. It is encoded as a bare JSON number and decodes
// from either a number or a quoted string.
type Amount struct {
	decimal.Decimal
}

// NewAmount parses a decimal string such as "12.50".
func NewAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount{d}, nil
}

// MustAmount is like NewAmount but panics on error. For constants and tests.
func MustAmount(s string) Amount {
	a, err := NewAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// Format renders the amount with two decimals and the currency code.
func (a Amount) Format(currency string) string {
	s := a.StringFixed(2)
	if currency == "" {
		return s
	}
	return s + " " + currency
}
