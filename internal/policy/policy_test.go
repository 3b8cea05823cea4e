package policy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger-import/internal/model"
)

func invoice(lines ...string) Invoice {
	inv := Invoice{
		VAT:        VAT21,
		Currency:   "EUR",
		Liability:  "Liabilities:BE:Hetzner",
		Expense:    "Expenses:Hosting:Hetzner",
		VATAccount: "Assets:BE:VAT:Deductible",
	}
	for _, l := range lines {
		inv.Lines = append(inv.Lines, decimal.RequireFromString(l))
	}
	return inv
}

func byAccount(postings []model.Posting) map[string][]string {
	m := make(map[string][]string)
	for _, p := range postings {
		m[p.Account] = append(m[p.Account], p.Units.NumberString())
	}
	return m
}

func TestSingleIncludeVAT(t *testing.T) {
	postings := SingleIncludeVAT{}.Postings(invoice("100"))
	require.Len(t, postings, 2)

	assert.Equal(t, "Liabilities:BE:Hetzner", postings[0].Account)
	assert.Equal(t, "-121.00", postings[0].Units.NumberString())
	assert.Equal(t, "Expenses:Hosting:Hetzner", postings[1].Account)
	assert.Equal(t, "121.00", postings[1].Units.NumberString())
	assert.NotContains(t, byAccount(postings), "Assets:BE:VAT:Deductible")
}

func TestPostingsPerPolicy(t *testing.T) {
	tests := []struct {
		policy PostingPolicy
		want   map[string][]string
	}{
		{Single{}, map[string][]string{
			"Liabilities:BE:Hetzner":   {"-48.40"},
			"Expenses:Hosting:Hetzner": {"40.00"},
			"Assets:BE:VAT:Deductible": {"8.40"},
		}},
		{Multi{}, map[string][]string{
			"Liabilities:BE:Hetzner":   {"-48.40"},
			"Expenses:Hosting:Hetzner": {"30.00", "10.00"},
			"Assets:BE:VAT:Deductible": {"8.40"},
		}},
		{SingleIncludeVAT{}, map[string][]string{
			"Liabilities:BE:Hetzner":   {"-48.40"},
			"Expenses:Hosting:Hetzner": {"48.40"},
		}},
		{MultiNoVAT{}, map[string][]string{
			"Liabilities:BE:Hetzner":   {"-40.00"},
			"Expenses:Hosting:Hetzner": {"30.00", "10.00"},
		}},
		{SingleNoVAT{}, map[string][]string{
			"Liabilities:BE:Hetzner":   {"-40.00"},
			"Expenses:Hosting:Hetzner": {"40.00"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			got := byAccount(tt.policy.Postings(invoice("30.00", "10.00")))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllPoliciesBalance(t *testing.T) {
	invoices := []Invoice{
		invoice("100"),
		invoice("4.90", "0.01", "19.99"),
		invoice("3.333", "1.111"),
		invoice(),
	}
	sixPct := invoice("17.77", "2.23")
	sixPct.VAT = VAT6
	invoices = append(invoices, sixPct)

	for _, p := range All() {
		for _, inv := range invoices {
			txn := &model.Transaction{Postings: p.Postings(inv)}
			assert.True(t, txn.Balanced(), "%s with lines %v: residual %v", p, inv.Lines, txn.Residual())
		}
	}
}

func TestPostsVAT(t *testing.T) {
	for _, p := range All() {
		accounts := byAccount(p.Postings(invoice("10")))
		_, hasVAT := accounts["Assets:BE:VAT:Deductible"]
		assert.Equal(t, p.PostsVAT(), hasVAT, p.String())
	}
}

func TestInvoiceAmounts(t *testing.T) {
	inv := invoice("4.90", "19.99")
	assert.Equal(t, "24.89", inv.Total().String())
	assert.Equal(t, "5.23", inv.VATAmount().String())
	assert.Equal(t, "30.12", inv.Gross().String())
}

func TestParsePostingPolicy(t *testing.T) {
	tests := []struct {
		name string
		want PostingPolicy
	}{
		{"single", Single{}},
		{"MULTI", Multi{}},
		{"SINGLE_INCLUDE_VAT", SingleIncludeVAT{}},
		{"multi-no-vat", MultiNoVAT{}},
		{" single_no_vat ", SingleNoVAT{}},
	}
	for _, tt := range tests {
		got, err := ParsePostingPolicy(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParsePostingPolicy("double")
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestNewValidates(t *testing.T) {
	p, err := New(Single{}, VAT6)
	require.NoError(t, err)
	assert.Equal(t, "single VAT 6%", p.String())

	_, err = New(nil, VAT21)
	assert.ErrorIs(t, err, ErrInvalidPolicy)

	_, err = New(Multi{}, VATRate(12))
	assert.ErrorIs(t, err, ErrInvalidVAT)
}

func TestDefault(t *testing.T) {
	p := Default()
	assert.NoError(t, p.Validate())
	assert.Equal(t, Multi{}, p.Posting)
	assert.Equal(t, VAT21, p.VAT)
}

func TestParseVATRate(t *testing.T) {
	r, err := ParseVATRate(21)
	require.NoError(t, err)
	assert.Equal(t, VAT21, r)

	_, err = ParseVATRate(0)
	assert.ErrorIs(t, err, ErrInvalidVAT)
}
