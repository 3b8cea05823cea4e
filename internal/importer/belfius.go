package importer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/ledger-import/internal/accounts"
	"github.com/cleared-dev/ledger-import/internal/model"
	"github.com/cleared-dev/ledger-import/internal/policy"
)

const (
	belfiusDateFormat   = "02/01/2006"
	belfiusHeader       = "Compte;Date de comptabilisation"
	belfiusLastBalance  = "Dernier solde"
	belfiusBalanceDate  = "Date/heure du dernier solde"
	belfiusDefaultCcy   = "EUR"
	belfiusFileDateForm = "2006-01-02"
)

// BE27 0639 8251 6873 2018-07-08 14-31-01 2.csv
var belfiusDef = &FileDef{
	Pattern: regexp.MustCompile(`^(?P<account>[A-Z]{2}\d{2}(?: \d{4}){3}) ` +
		`(?P<date>\d{4}-(?:0\d|1[0-2])-(?:[0-2]\d|3[01])) ` +
		`(?:[01]\d|2[0-4])-[0-5]\d-[0-5]\d[^_]*(?:_.+)*\.csv$`),
	Comma: ';',
	Fields: []string{
		"compte", "date_compta", "no_extrait", "no_transaction", "compte_cible",
		"nom_cible", "rue", "cp_loc", "transaction", "date_val", "montant",
		"currency", "BIC", "ctry_code", "comm",
	},
}

// BelfiusOptions maps the accounts seen in a Belfius export to ledger accounts.
type BelfiusOptions struct {
	// Assets maps own IBANs to asset accounts. Required.
	Assets *accounts.Map
	// Liabilities, Incomes and Expenses map counterparties (IBAN or name).
	Liabilities *accounts.Map
	Incomes     *accounts.Map
	Expenses    *accounts.Map
	// SuspenseAccount receives counterparties found in no map. When empty
	// such rows are skipped.
	SuspenseAccount string
	// Currency is used when a row carries none.
	Currency string
}

// Belfius imports Belfius bank account CSV exports.
type Belfius struct {
	name string
	opts BelfiusOptions
	log  logrus.FieldLogger
}

// NewBelfius creates a Belfius importer.
func NewBelfius(name string, opts BelfiusOptions, log logrus.FieldLogger) (*Belfius, error) {
	if opts.Assets.Len() == 0 {
		return nil, fmt.Errorf("belfius %s: no asset accounts configured", name)
	}
	for _, m := range []*accounts.Map{opts.Assets, opts.Liabilities, opts.Incomes, opts.Expenses} {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("belfius %s: %w", name, err)
		}
	}
	if opts.SuspenseAccount != "" && !accounts.ValidAccount(opts.SuspenseAccount) {
		return nil, fmt.Errorf("belfius %s: invalid suspense account %q", name, opts.SuspenseAccount)
	}
	if opts.Currency == "" {
		opts.Currency = belfiusDefaultCcy
	}
	return &Belfius{name: name, opts: opts, log: withImporter(log, name)}, nil
}

// Name returns the importer name.
func (b *Belfius) Name() string { return b.name }

// Identify matches the download name and the French header line.
func (b *Belfius) Identify(f *File) bool {
	if !belfiusDef.Match(f.Path) {
		return false
	}
	for _, line := range strings.Split(f.Head(), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), belfiusHeader) {
			return true
		}
	}
	return false
}

// FileName replaces the spaces of the download name.
func (b *Belfius) FileName(f *File) string {
	return Sanitize(f.Name())
}

// FileAccount is the asset account of the IBAN in the file name.
func (b *Belfius) FileAccount(f *File) (string, error) {
	return b.opts.Assets.Lookup(belfiusDef.Group(f.Path, "account"))
}

// FileDate is the export date in the file name.
func (b *Belfius) FileDate(f *File) (time.Time, error) {
	return belfiusDef.DateIn(f.Path, belfiusFileDateForm)
}

// Extract returns one transaction per statement line and a balance
// assertion for the last known balance. An unmapped file account aborts the
// import; unmapped row accounts skip the row.
func (b *Belfius) Extract(f *File) ([]model.Directive, error) {
	fileAccount, err := b.FileAccount(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name(), err)
	}

	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	rows, err := belfiusDef.Read(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name(), err)
	}

	var (
		entries      []model.Directive
		headerSeen   bool
		balanceText  string
		balanceDate  time.Time
		balanceIndex int
	)

	for i, row := range rows {
		lineno := i + 1
		compte := row.Get("compte")

		switch {
		case compte == "Compte" && row.Get("date_compta") == "Date de comptabilisation":
			headerSeen = true
			continue
		case compte == belfiusLastBalance:
			balanceText = row.Get("date_compta")
			balanceIndex = lineno
			continue
		case compte == belfiusBalanceDate:
			balanceDate, err = parseBelfiusDate(row.Get("date_compta"))
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", f.Name(), lineno, err)
			}
			continue
		}

		if !headerSeen || compte == "" {
			continue
		}

		txn, err := b.transaction(f, lineno, row)
		if errors.Is(err, accounts.ErrUnmapped) {
			b.log.WithFields(logrus.Fields{
				"file":  f.Name(),
				"row":   lineno,
				"error": err,
			}).Warn("unknown account, row skipped")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", f.Name(), lineno, err)
		}
		entries = append(entries, txn)
	}

	if balanceText != "" && !balanceDate.IsZero() {
		bal, err := b.balance(f, balanceIndex, fileAccount, balanceText, balanceDate)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", f.Name(), balanceIndex, err)
		}
		entries = append(entries, bal)
	}

	b.log.WithFields(logrus.Fields{"file": f.Name(), "entries": len(entries)}).Debug("extracted")
	return entries, nil
}

func (b *Belfius) transaction(f *File, lineno int, row Row) (*model.Transaction, error) {
	account, err := b.opts.Assets.Lookup(row.Get("compte"))
	if err != nil {
		return nil, err
	}

	date, err := parseBelfiusDate(row.Get("date_compta"))
	if err != nil {
		return nil, err
	}

	number, commodity, err := policy.ParseLocalized(row.Get("montant"))
	if err != nil {
		return nil, err
	}
	currency := row.Get("currency")
	if currency == "" {
		currency = commodity
	}
	if currency == "" {
		currency = b.opts.Currency
	}

	counter, err := b.counterAccount(row, number)
	if err != nil {
		return nil, err
	}

	meta := model.NewMetadata(f.Path, lineno)
	meta.Set("no_extrait", row.Get("no_extrait"))
	meta.Set("no_transaction", row.Get("no_transaction"))
	meta.Set("date_valeur", row.Get("date_val"))
	meta.SetIfPresent("compte_cible", row.Get("compte_cible"))
	meta.SetIfPresent("BIC", row.Get("BIC"))
	meta.SetIfPresent("rue", row.Get("rue"))
	meta.SetIfPresent("cp_loc", row.Get("cp_loc"))
	meta.SetIfPresent("ctry_code", row.Get("ctry_code"))

	narration := row.Get("comm")
	if narration == "" {
		narration = row.Get("transaction")
	}

	amount := model.NewAmount(number, currency)
	return &model.Transaction{
		Date:      date,
		Flag:      model.FlagOK,
		Payee:     row.Get("nom_cible"),
		Narration: narration,
		Metadata:  meta,
		Postings: []model.Posting{
			{Account: account, Units: amount},
			{Account: counter, Units: amount.Neg()},
		},
	}, nil
}

// counterAccount looks the counterparty up by IBAN then by name: own and
// liability accounts first, then expenses for debits or incomes for credits.
func (b *Belfius) counterAccount(row Row, amount decimal.Decimal) (string, error) {
	maps := []*accounts.Map{b.opts.Assets, b.opts.Liabilities}
	if amount.IsNegative() {
		maps = append(maps, b.opts.Expenses)
	} else {
		maps = append(maps, b.opts.Incomes)
	}

	var keys []string
	for _, k := range []string{row.Get("compte_cible"), row.Get("nom_cible")} {
		if k != "" {
			keys = append(keys, k)
		}
	}

	for _, key := range keys {
		for _, m := range maps {
			if acct, ok := m.Get(key); ok {
				return acct, nil
			}
		}
	}

	if b.opts.SuspenseAccount != "" {
		return b.opts.SuspenseAccount, nil
	}
	return "", fmt.Errorf("%w: counterparty %q", accounts.ErrUnmapped, strings.Join(keys, " / "))
}

// balance asserts text ("1.234,56 EUR") at the start of the day after date.
func (b *Belfius) balance(f *File, lineno int, account, text string, date time.Time) (*model.Balance, error) {
	number, commodity, err := policy.ParseLocalized(text)
	if err != nil {
		return nil, err
	}
	if commodity == "" {
		commodity = b.opts.Currency
	}
	return &model.Balance{
		Date:     date.AddDate(0, 0, 1),
		Account:  account,
		Amount:   model.NewAmount(number, commodity),
		Metadata: model.NewMetadata(f.Path, lineno),
	}, nil
}

// parseBelfiusDate reads "08/07/2018", ignoring a trailing time.
func parseBelfiusDate(s string) (time.Time, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return time.Time{}, fmt.Errorf("parsing date: empty")
	}
	date, err := time.Parse(belfiusDateFormat, fields[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return date, nil
}
