package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Flag marks the state of a transaction or posting.
type Flag string

const (
	FlagOK      Flag = "*"
	FlagWarning Flag = "!"
)

// DirectiveKind names the kind of a ledger directive.
type DirectiveKind string

const (
	KindTransaction DirectiveKind = "transaction"
	KindBalance     DirectiveKind = "balance"
)

// Directive is one dated entry emitted by an importer.
type Directive interface {
	Kind() DirectiveKind
	DirectiveDate() time.Time
	Meta() Metadata
}

// Posting is one account/amount line of a transaction.
type Posting struct {
	Account string
	Units   Amount
	Price   *Amount // optional per-unit price
	Flag    Flag    // empty unless the posting needs attention
}

// Transaction is a dated set of postings that must sum to zero per commodity.
type Transaction struct {
	Date      time.Time
	Flag      Flag
	Payee     string
	Narration string
	Tags      []string
	Metadata  Metadata
	Postings  []Posting
}

var _ Directive = (*Transaction)(nil)

func (t *Transaction) Kind() DirectiveKind      { return KindTransaction }
func (t *Transaction) DirectiveDate() time.Time { return t.Date }
func (t *Transaction) Meta() Metadata           { return t.Metadata }

// Residual returns the per-commodity sum of the postings' weights. Postings
// with a price weigh in the price's commodity.
func (t *Transaction) Residual() map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal)
	for _, p := range t.Postings {
		if p.Price != nil {
			sums[p.Price.Currency] = sums[p.Price.Currency].Add(p.Units.Number.Mul(p.Price.Number))
			continue
		}
		sums[p.Units.Currency] = sums[p.Units.Currency].Add(p.Units.Number)
	}
	return sums
}

// Balanced reports whether every commodity sums to zero.
func (t *Transaction) Balanced() bool {
	for _, v := range t.Residual() {
		if !v.IsZero() {
			return false
		}
	}
	return true
}

// Balance asserts the amount held by an account at the start of Date.
type Balance struct {
	Date     time.Time
	Account  string
	Amount   Amount
	Metadata Metadata
}

var _ Directive = (*Balance)(nil)

func (b *Balance) Kind() DirectiveKind      { return KindBalance }
func (b *Balance) DirectiveDate() time.Time { return b.Date }
func (b *Balance) Meta() Metadata           { return b.Metadata }

// SortDirectives orders directives by date, keeping the relative order of
// directives on the same day.
func SortDirectives(ds []Directive) {
	sort.SliceStable(ds, func(i, j int) bool {
		return ds[i].DirectiveDate().Before(ds[j].DirectiveDate())
	})
}
