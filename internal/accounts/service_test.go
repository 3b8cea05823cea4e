package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	m := NewMap("assets", map[string]string{
		"BE27 0639 8251 6873": "Assets:BE:Belfius:Checking",
	})

	acct, err := m.Lookup("BE27 0639 8251 6873")
	require.NoError(t, err)
	assert.Equal(t, "Assets:BE:Belfius:Checking", acct)

	// Spacing and case do not matter.
	acct, err = m.Lookup("be27063982516873")
	require.NoError(t, err)
	assert.Equal(t, "Assets:BE:Belfius:Checking", acct)

	_, err = m.Lookup("BE00 0000 0000 0000")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnmapped)
	assert.Contains(t, err.Error(), "assets map")
}

func TestNilMap(t *testing.T) {
	var m *Map
	_, err := m.Lookup("x")
	assert.ErrorIs(t, err, ErrUnmapped)
	assert.False(t, m.Exists("x"))
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Entries())
}

func TestFromEntriesAndMerge(t *testing.T) {
	m := FromEntries("expenses", []Entry{
		{Key: "BE71 0961 2345 6769", Account: "Expenses:Utilities:Electricity"},
	})
	m.Merge([]Entry{
		{Key: "BE71096123456769", Account: "Expenses:Other"},
		{Key: "BE43 0689 9999 9501", Account: "Expenses:Rent"},
	})

	assert.Equal(t, 2, m.Len())
	acct, ok := m.Get("BE71 0961 2345 6769")
	assert.True(t, ok)
	assert.Equal(t, "Expenses:Utilities:Electricity", acct, "inline entries win over merged ones")
	assert.True(t, m.Exists("BE43 0689 9999 9501"))
}

func TestEntriesSorted(t *testing.T) {
	m := NewMap("servers", map[string]string{
		"654321": "Expenses:Hosting:B",
		"123456": "Expenses:Hosting:A",
	})
	entries := m.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "123456", entries[0].Key)
	assert.Equal(t, "654321", entries[1].Key)
}

func TestValidate(t *testing.T) {
	good := NewMap("assets", map[string]string{"a": "Assets:BE:Bank"})
	assert.NoError(t, good.Validate())

	bad := NewMap("assets", map[string]string{"a": "Bank"})
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid account "Bank"`)
}

func TestValidAccount(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Assets:BE:Belfius:Checking", true},
		{"Liabilities:Hetzner", true},
		{"Income:BE:Customer:HeureSup", true},
		{"Expenses:Congé", true},
		{"Equity:Opening-Balances", true},
		{"Assets", false},
		{"Bank:Checking", false},
		{"Assets:checking", false},
		{"Assets::Checking", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidAccount(tt.name), tt.name)
	}
}
