// Package policy holds the rules that decide how an invoice is split into
// ledger postings, and the amount conversions shared by the importers.
package policy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger-import/internal/model"
)

var (
	// ErrInvalidPolicy is returned for a missing or unknown posting policy.
	ErrInvalidPolicy = errors.New("invalid posting policy")
	// ErrInvalidVAT is returned for a VAT rate that is not a Belgian rate.
	ErrInvalidVAT = errors.New("invalid VAT rate")
)

// VATRate is a Belgian VAT percentage.
type VATRate int

const (
	VAT21 VATRate = 21
	VAT6  VATRate = 6
)

// ParseVATRate converts a configured percentage to a VATRate.
func ParseVATRate(n int) (VATRate, error) {
	r := VATRate(n)
	if !r.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidVAT, n)
	}
	return r, nil
}

// Valid reports whether r is one of the known rates.
func (r VATRate) Valid() bool {
	return r == VAT21 || r == VAT6
}

// Percent returns the rate as a decimal percentage.
func (r VATRate) Percent() decimal.Decimal {
	return decimal.NewFromInt(int64(r))
}

// Invoice is what a PostingPolicy splits: net line amounts plus the accounts
// the postings go to.
type Invoice struct {
	Lines      []decimal.Decimal
	VAT        VATRate
	Currency   string
	Liability  string
	Expense    string
	VATAccount string
}

// Total returns the net total, summing lines rounded to cents.
func (inv Invoice) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range inv.Lines {
		total = total.Add(l.Round(2))
	}
	return total
}

// VATAmount returns total * rate / 100 rounded to cents.
func (inv Invoice) VATAmount() decimal.Decimal {
	return inv.Total().Mul(inv.VAT.Percent()).Div(decimal.NewFromInt(100)).Round(2)
}

// Gross returns the net total plus VAT.
func (inv Invoice) Gross() decimal.Decimal {
	return inv.Total().Add(inv.VATAmount())
}

// PostingPolicy is a closed set of rules for splitting an invoice. The
// unexported method keeps the set closed to this package; each variant
// carries its own split so a new variant cannot exist without one.
type PostingPolicy interface {
	fmt.Stringer
	// Postings returns the balanced postings for inv. The liability side is
	// negative.
	Postings(inv Invoice) []model.Posting
	// PostsVAT reports whether the policy books VAT on its own account.
	PostsVAT() bool
	sealed()
}

// Single books one expense posting and one VAT posting.
type Single struct{}

// Multi books one expense posting per invoice line and one VAT posting on
// the total.
type Multi struct{}

// SingleIncludeVAT books one expense posting with VAT included.
type SingleIncludeVAT struct{}

// MultiNoVAT books one expense posting per line and ignores VAT.
type MultiNoVAT struct{}

// SingleNoVAT books one expense posting and ignores VAT.
type SingleNoVAT struct{}

func (Single) String() string           { return "single" }
func (Multi) String() string            { return "multi" }
func (SingleIncludeVAT) String() string { return "single_include_vat" }
func (MultiNoVAT) String() string       { return "multi_no_vat" }
func (SingleNoVAT) String() string      { return "single_no_vat" }

func (Single) PostsVAT() bool           { return true }
func (Multi) PostsVAT() bool            { return true }
func (SingleIncludeVAT) PostsVAT() bool { return false }
func (MultiNoVAT) PostsVAT() bool       { return false }
func (SingleNoVAT) PostsVAT() bool      { return false }

func (Single) sealed()           {}
func (Multi) sealed()            {}
func (SingleIncludeVAT) sealed() {}
func (MultiNoVAT) sealed()       {}
func (SingleNoVAT) sealed()      {}

func (Single) Postings(inv Invoice) []model.Posting {
	return []model.Posting{
		posting(inv.Liability, inv.Gross().Neg(), inv.Currency),
		posting(inv.Expense, inv.Total(), inv.Currency),
		posting(inv.VATAccount, inv.VATAmount(), inv.Currency),
	}
}

func (Multi) Postings(inv Invoice) []model.Posting {
	postings := []model.Posting{posting(inv.Liability, inv.Gross().Neg(), inv.Currency)}
	postings = append(postings, linePostings(inv)...)
	return append(postings, posting(inv.VATAccount, inv.VATAmount(), inv.Currency))
}

func (SingleIncludeVAT) Postings(inv Invoice) []model.Posting {
	gross := inv.Gross()
	return []model.Posting{
		posting(inv.Liability, gross.Neg(), inv.Currency),
		posting(inv.Expense, gross, inv.Currency),
	}
}

func (MultiNoVAT) Postings(inv Invoice) []model.Posting {
	postings := []model.Posting{posting(inv.Liability, inv.Total().Neg(), inv.Currency)}
	return append(postings, linePostings(inv)...)
}

func (SingleNoVAT) Postings(inv Invoice) []model.Posting {
	total := inv.Total()
	return []model.Posting{
		posting(inv.Liability, total.Neg(), inv.Currency),
		posting(inv.Expense, total, inv.Currency),
	}
}

func linePostings(inv Invoice) []model.Posting {
	postings := make([]model.Posting, len(inv.Lines))
	for i, l := range inv.Lines {
		postings[i] = posting(inv.Expense, l, inv.Currency)
	}
	return postings
}

func posting(account string, n decimal.Decimal, currency string) model.Posting {
	return model.Posting{Account: account, Units: Money(n, currency)}
}

// ParsePostingPolicy maps a configured name such as "single_include_vat" or
// "SINGLE-INCLUDE-VAT" to its variant.
func ParsePostingPolicy(name string) (PostingPolicy, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
	for _, p := range All() {
		if p.String() == key {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidPolicy, name)
}

// All returns every posting policy variant.
func All() []PostingPolicy {
	return []PostingPolicy{Single{}, Multi{}, SingleIncludeVAT{}, MultiNoVAT{}, SingleNoVAT{}}
}

// Policy pairs a posting policy with the VAT rate it applies.
type Policy struct {
	Posting PostingPolicy
	VAT     VATRate
}

// Default is multi-line posting at 21% VAT.
func Default() Policy {
	return Policy{Posting: Multi{}, VAT: VAT21}
}

// New returns a validated Policy.
func New(p PostingPolicy, vat VATRate) (Policy, error) {
	pol := Policy{Posting: p, VAT: vat}
	if err := pol.Validate(); err != nil {
		return Policy{}, err
	}
	return pol, nil
}

// Validate rejects a nil posting policy and unknown VAT rates.
func (p Policy) Validate() error {
	if p.Posting == nil {
		return fmt.Errorf("%w: none set", ErrInvalidPolicy)
	}
	if !p.VAT.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidVAT, int(p.VAT))
	}
	return nil
}

func (p Policy) String() string {
	if p.Posting == nil {
		return fmt.Sprintf("<none> VAT %d%%", int(p.VAT))
	}
	return fmt.Sprintf("%s VAT %d%%", p.Posting, int(p.VAT))
}
