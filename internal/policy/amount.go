package policy

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger-import/internal/model"
)

// ToAmount converts a plain decimal string to an Amount.
func ToAmount(value, commodity string) (model.Amount, error) {
	n, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return model.Amount{}, fmt.Errorf("parsing amount %q: %w", value, err)
	}
	return model.NewAmount(n, commodity), nil
}

// Money rounds n to cents.
func Money(n decimal.Decimal, currency string) model.Amount {
	return model.NewAmount(n.Round(2), currency)
}

// ParseLocalized parses amounts as exported by Belgian banks: "-1.234,56",
// "12,5", "+3 000,00 EUR". Without a comma the value is read as a plain
// decimal. A trailing alphabetic commodity, if any, is returned separately.
func ParseLocalized(s string) (decimal.Decimal, string, error) {
	v := strings.TrimSpace(s)
	var commodity string
	if i := strings.LastIndexFunc(v, unicode.IsSpace); i >= 0 {
		_, width := utf8.DecodeRuneInString(v[i:])
		if tail := v[i+width:]; isCommodity(tail) {
			commodity = tail
			v = strings.TrimSpace(v[:i])
		}
	}
	v = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, v)
	if strings.Contains(v, ",") {
		v = strings.ReplaceAll(v, ".", "")
		v = strings.Replace(v, ",", ".", 1)
	}
	v = strings.TrimPrefix(v, "+")

	n, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, "", fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return n, commodity, nil
}

func isCommodity(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
