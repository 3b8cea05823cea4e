package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a number tagged with a commodity (currency or unit).
type Amount struct {
	Number   decimal.Decimal
	Currency string
}

// NewAmount returns an Amount.
func NewAmount(n decimal.Decimal, currency string) Amount {
	return Amount{Number: n, Currency: currency}
}

// Neg returns the amount with its sign flipped.
func (a Amount) Neg() Amount {
	return Amount{Number: a.Number.Neg(), Currency: a.Currency}
}

// Add sums two amounts of the same commodity.
func (a Amount) Add(b Amount) (Amount, error) {
	if a.Currency != b.Currency {
		return Amount{}, fmt.Errorf("adding %s to %s: commodity mismatch", b.Currency, a.Currency)
	}
	return Amount{Number: a.Number.Add(b.Number), Currency: a.Currency}, nil
}

// NumberString formats the number keeping its scale: 121.00 stays "121.00",
// 0.5 stays "0.5".
func (a Amount) NumberString() string {
	places := -a.Number.Exponent()
	if places < 0 {
		places = 0
	}
	return a.Number.StringFixed(places)
}

func (a Amount) String() string {
	return a.NumberString() + " " + a.Currency
}
