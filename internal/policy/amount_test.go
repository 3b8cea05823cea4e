package policy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToAmount(t *testing.T) {
	a, err := ToAmount("-4.90", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "-4.90 EUR", a.String())

	_, err = ToAmount("four", "EUR")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parsing amount")
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "2.35 EUR", Money(decimal.RequireFromString("2.345"), "EUR").String())
	assert.Equal(t, "121.00 EUR", Money(decimal.NewFromInt(121), "EUR").String())
}

func TestParseLocalized(t *testing.T) {
	tests := []struct {
		input     string
		want      string
		commodity string
	}{
		{"-12,34", "-12.34", ""},
		{"1.234,56", "1234.56", ""},
		{"1.234,56 EUR", "1234.56", "EUR"},
		{"+3 000,00 EUR", "3000", "EUR"},
		{"1 250,10 EUR", "1250.1", "EUR"},
		{"42.50", "42.5", ""},
		{" 7 ", "7", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, commodity, err := ParseLocalized(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
			assert.Equal(t, tt.commodity, commodity)
		})
	}
}

func TestParseLocalized_Invalid(t *testing.T) {
	for _, input := range []string{"", "EUR", "12,34,56", "abc"} {
		_, _, err := ParseLocalized(input)
		assert.Error(t, err, input)
	}
}
