package journal

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cleared-dev/ledger-import/internal/model"
)

const (
	dateFormat    = "2006-01-02"
	accountColumn = 50
	indent        = "  "
)

// WriteDirectives writes directives in beancount syntax, separated by blank lines.
func WriteDirectives(w io.Writer, directives []model.Directive) error {
	bw := bufio.NewWriter(w)
	for i, d := range directives {
		if i > 0 {
			if _, err := bw.WriteString("\n"); err != nil {
				return fmt.Errorf("writing directive %d: %w", i, err)
			}
		}
		if _, err := bw.WriteString(FormatDirective(d)); err != nil {
			return fmt.Errorf("writing directive %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// FormatDirective renders one directive, ending with a newline.
func FormatDirective(d model.Directive) string {
	switch d := d.(type) {
	case *model.Transaction:
		return FormatTransaction(d)
	case *model.Balance:
		return FormatBalance(d)
	default:
		return fmt.Sprintf("; unsupported directive %s\n", d.Kind())
	}
}

// FormatTransaction renders a transaction:
//
//	2018-07-09 * "Hetzner" "Renting of server 123456"
//	  start_period: "2018-06-01"
//	  Liabilities:Hetzner                     -121.00 EUR
//	  Expenses:Hosting                         121.00 EUR
func FormatTransaction(t *model.Transaction) string {
	var sb strings.Builder

	sb.WriteString(t.Date.Format(dateFormat))
	flag := t.Flag
	if flag == "" {
		flag = model.FlagOK
	}
	sb.WriteString(" " + string(flag))
	if t.Payee != "" {
		sb.WriteString(" " + quote(t.Payee))
	}
	sb.WriteString(" " + quote(t.Narration))
	for _, tag := range t.Tags {
		sb.WriteString(" #" + tag)
	}
	sb.WriteString("\n")

	writeMeta(&sb, t.Metadata)

	for _, p := range t.Postings {
		sb.WriteString(indent)
		sb.WriteString(FormatPosting(p))
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatPosting renders a posting line without indentation.
func FormatPosting(p model.Posting) string {
	var sb strings.Builder
	if p.Flag != "" {
		sb.WriteString(string(p.Flag) + " ")
	}
	fmt.Fprintf(&sb, "%-*s", accountColumn, p.Account)

	num := p.Units.NumberString()
	if !strings.HasPrefix(num, "-") {
		sb.WriteString(" ")
	}
	sb.WriteString(" " + num + " " + p.Units.Currency)

	if p.Price != nil {
		sb.WriteString(" @ " + p.Price.String())
	}
	return sb.String()
}

// FormatBalance renders a balance assertion.
func FormatBalance(b *model.Balance) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s balance %-*s %s\n", b.Date.Format(dateFormat), accountColumn, b.Account, b.Amount)
	writeMeta(&sb, b.Metadata)
	return sb.String()
}

func writeMeta(sb *strings.Builder, m model.Metadata) {
	for _, e := range m.Entries {
		sb.WriteString(indent + metaKey(e.Key) + ": " + quote(e.Value) + "\n")
	}
}

// metaKey lower-cases key; beancount keys must start lower case.
func metaKey(key string) string {
	return strings.ToLower(key)
}

func quote(s string) string {
	return strconv.Quote(strings.Join(strings.Fields(s), " "))
}
