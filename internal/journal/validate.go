package journal

import (
	"fmt"
	"sort"

	"github.com/cleared-dev/ledger-import/internal/accounts"
	"github.com/cleared-dev/ledger-import/internal/model"
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Invariant   int
	Index       int
	Date        string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [#%d %s]: %s", e.Invariant, e.Index, e.Date, e.Description)
}

// Validate enforces 4 invariants on extracted directives.
func Validate(directives []model.Directive) []ValidationError {
	var errs []ValidationError

	for i, d := range directives {
		date := d.DirectiveDate().Format(dateFormat)
		add := func(invariant int, format string, args ...any) {
			errs = append(errs, ValidationError{
				Invariant:   invariant,
				Index:       i,
				Date:        date,
				Description: fmt.Sprintf(format, args...),
			})
		}

		switch d := d.(type) {
		case *model.Transaction:
			// Invariant 1: At least two postings.
			if len(d.Postings) < 2 {
				add(1, "transaction has %d postings", len(d.Postings))
			}

			// Invariant 2: Postings sum to zero per commodity.
			residual := d.Residual()
			commodities := make([]string, 0, len(residual))
			for c := range residual {
				commodities = append(commodities, c)
			}
			sort.Strings(commodities)
			for _, c := range commodities {
				if !residual[c].IsZero() {
					add(2, "postings leave %s %s unbalanced", residual[c].String(), c)
				}
			}

			for _, p := range d.Postings {
				// Invariant 3: Valid account names.
				if !accounts.ValidAccount(p.Account) {
					add(3, "invalid account %q", p.Account)
				}
				// Invariant 4: Every amount has a commodity.
				if p.Units.Currency == "" {
					add(4, "posting to %s has no commodity", p.Account)
				}
			}

		case *model.Balance:
			if !accounts.ValidAccount(d.Account) {
				add(3, "invalid account %q", d.Account)
			}
			if d.Amount.Currency == "" {
				add(4, "balance of %s has no commodity", d.Account)
			}
		}
	}

	return errs
}
