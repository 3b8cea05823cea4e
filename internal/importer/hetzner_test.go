package importer

import (
	"path/filepath"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger-import/internal/accounts"
	"github.com/cleared-dev/ledger-import/internal/model"
	"github.com/cleared-dev/ledger-import/internal/policy"
)

const hetznerFixture = "Hetzner-2018-07-09-R0005123456.csv"

func hetznerOptions(p policy.PostingPolicy) HetznerOptions {
	return HetznerOptions{
		Liability:  "Liabilities:BE:Hetzner",
		Expense:    "Expenses:Hosting",
		VATAccount: "Assets:BE:VAT:Deductible",
		Policy:     policy.Policy{Posting: p, VAT: policy.VAT21},
	}
}

func newTestHetzner(t *testing.T, p policy.PostingPolicy) (*Hetzner, *logtest.Hook) {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	h, err := NewHetzner("hetzner", hetznerOptions(p), log)
	require.NoError(t, err)
	return h, hook
}

func TestNewHetzner_Validation(t *testing.T) {
	opts := hetznerOptions(policy.Single{})
	opts.VATAccount = ""
	_, err := NewHetzner("h", opts, nil)
	assert.Error(t, err, "VAT account required when the policy posts VAT")

	opts = hetznerOptions(policy.SingleNoVAT{})
	opts.VATAccount = ""
	_, err = NewHetzner("h", opts, nil)
	assert.NoError(t, err)

	opts = hetznerOptions(nil)
	_, err = NewHetzner("h", opts, nil)
	assert.ErrorIs(t, err, policy.ErrInvalidPolicy)

	opts = hetznerOptions(policy.Multi{})
	opts.Policy.VAT = 19
	_, err = NewHetzner("h", opts, nil)
	assert.ErrorIs(t, err, policy.ErrInvalidVAT)

	opts = hetznerOptions(policy.Multi{})
	opts.Liability = "hetzner"
	_, err = NewHetzner("h", opts, nil)
	assert.Error(t, err)
}

func TestHetzner_Identify(t *testing.T) {
	h, _ := newTestHetzner(t, policy.Multi{})
	dir := t.TempDir()

	assert.True(t, h.Identify(NewFile(filepath.Join(testdata, hetznerFixture))))

	filed := copyFixture(t, hetznerFixture, dir, "2018-07-10_Hetzner-2018-07-09-R0005123456_paid.csv")
	assert.True(t, h.Identify(NewFile(filed)))

	for _, name := range []string{
		"Hetzner-2018-07-09-R0005123456.txt",
		"Hetzner-R0005123456.csv",
		"Hetzner-2018-07-09-R123.csv",
		"hetzner-2018-07-09-R0005123456.csv",
	} {
		path := copyFixture(t, hetznerFixture, dir, name)
		assert.False(t, h.Identify(NewFile(path)), name)
	}

	short := writeFile(t, dir, "Hetzner-2018-08-09-R0005123457.csv", "a,b,c\n")
	assert.False(t, h.Identify(NewFile(short)), "rows must have eight fields")
}

func TestHetzner_FileAccessors(t *testing.T) {
	h, _ := newTestHetzner(t, policy.Multi{})
	f := NewFile("/in/2018-07-10_Hetzner-2018-07-09-R0005123456.csv")

	assert.Equal(t, "Hetzner-2018-07-09-R0005123456.csv", h.FileName(f))

	acct, err := h.FileAccount(f)
	require.NoError(t, err)
	assert.Equal(t, "Liabilities:BE:Hetzner", acct)

	date, err := h.FileDate(f)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 7, 9, 0, 0, 0, 0, time.UTC), date)
}

func postingStrings(txn *model.Transaction) []string {
	out := make([]string, len(txn.Postings))
	for i, p := range txn.Postings {
		out[i] = p.Account + " " + p.Units.String()
	}
	return out
}

func TestHetzner_Extract(t *testing.T) {
	tests := []struct {
		policy policy.PostingPolicy
		first  []string
		second []string
	}{
		{
			policy: policy.Multi{},
			first: []string{
				"Liabilities:BE:Hetzner -8.47 EUR",
				"Expenses:Hosting 5.83 EUR",
				"Expenses:Hosting 1.17 EUR",
				"Assets:BE:VAT:Deductible 1.47 EUR",
			},
			second: []string{
				"Liabilities:BE:Hetzner -14.02 EUR",
				"Expenses:Hosting 10.59 EUR",
				"Expenses:Hosting 1.00 EUR",
				"Assets:BE:VAT:Deductible 2.43 EUR",
			},
		},
		{
			policy: policy.Single{},
			first: []string{
				"Liabilities:BE:Hetzner -8.47 EUR",
				"Expenses:Hosting 7.00 EUR",
				"Assets:BE:VAT:Deductible 1.47 EUR",
			},
			second: []string{
				"Liabilities:BE:Hetzner -14.02 EUR",
				"Expenses:Hosting 11.59 EUR",
				"Assets:BE:VAT:Deductible 2.43 EUR",
			},
		},
		{
			policy: policy.SingleIncludeVAT{},
			first: []string{
				"Liabilities:BE:Hetzner -8.47 EUR",
				"Expenses:Hosting 8.47 EUR",
			},
			second: []string{
				"Liabilities:BE:Hetzner -14.02 EUR",
				"Expenses:Hosting 14.02 EUR",
			},
		},
		{
			policy: policy.MultiNoVAT{},
			first: []string{
				"Liabilities:BE:Hetzner -7.00 EUR",
				"Expenses:Hosting 5.83 EUR",
				"Expenses:Hosting 1.17 EUR",
			},
			second: []string{
				"Liabilities:BE:Hetzner -11.59 EUR",
				"Expenses:Hosting 10.59 EUR",
				"Expenses:Hosting 1.00 EUR",
			},
		},
		{
			policy: policy.SingleNoVAT{},
			first: []string{
				"Liabilities:BE:Hetzner -7.00 EUR",
				"Expenses:Hosting 7.00 EUR",
			},
			second: []string{
				"Liabilities:BE:Hetzner -11.59 EUR",
				"Expenses:Hosting 11.59 EUR",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			h, hook := newTestHetzner(t, tt.policy)
			entries, err := h.Extract(NewFile(filepath.Join(testdata, hetznerFixture)))
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Len(t, hook.AllEntries(), 1, "floating IP of an unknown server is dropped")

			first := entries[0].(*model.Transaction)
			second := entries[1].(*model.Transaction)
			assert.Equal(t, tt.first, postingStrings(first))
			assert.Equal(t, tt.second, postingStrings(second))
			assert.True(t, first.Balanced())
			assert.True(t, second.Balanced())
		})
	}
}

func TestHetzner_ExtractTransaction(t *testing.T) {
	h, _ := newTestHetzner(t, policy.Multi{})
	entries, err := h.Extract(NewFile(filepath.Join(testdata, hetznerFixture)))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	txn := entries[1].(*model.Transaction)
	assert.Equal(t, time.Date(2018, 7, 9, 0, 0, 0, 0, time.UTC), txn.Date)
	assert.Equal(t, "Hetzner", txn.Payee)
	assert.Equal(t, "Renting of server 202222 for the period 2018-06-15 to 2018-07-14", txn.Narration)

	for key, want := range map[string]string{
		"invoice":      "R0005123456",
		"server":       "202222",
		"start_period": "2018-06-15",
		"end_period":   "2018-07-14",
	} {
		got, ok := txn.Metadata.Get(key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
}

func TestHetzner_ServerAccounts(t *testing.T) {
	opts := hetznerOptions(policy.SingleNoVAT{})
	opts.Servers = accounts.NewMap("servers", map[string]string{"202222": "Expenses:Hosting:Staging"})
	h, err := NewHetzner("hetzner", opts, nil)
	require.NoError(t, err)

	entries, err := h.Extract(NewFile(filepath.Join(testdata, hetznerFixture)))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Expenses:Hosting", entries[0].(*model.Transaction).Postings[1].Account)
	assert.Equal(t, "Expenses:Hosting:Staging", entries[1].(*model.Transaction).Postings[1].Account)
}
