package importer

import (
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
	hetznerPayee       = "Hetzner"
	hetznerDefaultCcy  = "EUR"
	hetznerFileDateFmt = "2006-01-02"
)

// Hetzner-2018-07-09-R0005123456.csv, optionally filed as
// 2018-07-09_Hetzner-2018-07-09-R0005123456_paid.csv.
var hetznerDef = &FileDef{
	Pattern: regexp.MustCompile(`^(?:\d{4}-(?:0\d|1[0-2])-(?:[0-2]\d|3[01])[_.])?` +
		`Hetzner-(?P<date>\d{4}-(?:0\d|1[0-2])-(?:[0-2]\d|3[01]))-(?P<invoice>R\d{10})` +
		`(?:_.+)*\.csv$`),
	Comma:  ',',
	Fields: []string{"product", "description", "date_start", "date_end", "qty", "unit_price", "price_no_vat", "srv_id"},
	Strict: true,
}

var serverInDescription = regexp.MustCompile(`Server #(\d{6})`)

// HetznerOptions configures the invoice importer.
type HetznerOptions struct {
	// Liability is credited with the invoice amount.
	Liability string
	// Expense is debited unless Servers maps the server id elsewhere.
	Expense string
	// VATAccount receives VAT for policies that post it.
	VATAccount string
	// Servers maps server ids to expense accounts. Optional.
	Servers  *accounts.Map
	Policy   policy.Policy
	Currency string
}

// Hetzner imports Hetzner invoice CSV exports, one transaction per server.
type Hetzner struct {
	name string
	opts HetznerOptions
	log  logrus.FieldLogger
}

// NewHetzner validates opts and creates a Hetzner importer.
func NewHetzner(name string, opts HetznerOptions, log logrus.FieldLogger) (*Hetzner, error) {
	if err := opts.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("hetzner %s: %w", name, err)
	}
	required := map[string]string{"liability_account": opts.Liability, "expense_account": opts.Expense}
	if opts.Policy.Posting.PostsVAT() {
		required["vat_account"] = opts.VATAccount
	}
	for key, acct := range required {
		if !accounts.ValidAccount(acct) {
			return nil, fmt.Errorf("hetzner %s: invalid %s %q", name, key, acct)
		}
	}
	if err := opts.Servers.Validate(); err != nil {
		return nil, fmt.Errorf("hetzner %s: %w", name, err)
	}
	if opts.Currency == "" {
		opts.Currency = hetznerDefaultCcy
	}
	return &Hetzner{name: name, opts: opts, log: withImporter(log, name)}, nil
}

func (h *Hetzner) Name() string { return h.name }

// Identify matches the invoice name and requires every record to have the
// eight invoice columns.
func (h *Hetzner) Identify(f *File) bool {
	if !hetznerDef.Match(f.Path) {
		return false
	}
	r, err := f.Reader()
	if err != nil {
		return false
	}
	rows, err := hetznerDef.Read(r)
	return err == nil && len(rows) > 0
}

func (h *Hetzner) FileName(f *File) string {
	name := f.Name()
	if i := strings.Index(name, "Hetzner-"); i > 0 {
		name = name[i:]
	}
	return Sanitize(name)
}

func (h *Hetzner) FileAccount(*File) (string, error) {
	return h.opts.Liability, nil
}

func (h *Hetzner) FileDate(f *File) (time.Time, error) {
	return hetznerDef.DateIn(f.Path, hetznerFileDateFmt)
}

type serverGroup struct {
	id     string
	lineno int
	lines  []decimal.Decimal
	start  string
	end    string
}

func (g *serverGroup) add(row Row, net decimal.Decimal) {
	g.lines = append(g.lines, net)
	if s := row.Get("date_start"); s != "" && (g.start == "" || s < g.start) {
		g.start = s
	}
	if e := row.Get("date_end"); e > g.end {
		g.end = e
	}
}

// Extract groups invoice lines by server and posts each group with the
// configured policy. Lines that name no known server are dropped.
func (h *Hetzner) Extract(f *File) ([]model.Directive, error) {
	date, err := h.FileDate(f)
	if err != nil {
		return nil, err
	}
	invoice := hetznerDef.Group(f.Path, "invoice")

	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	rows, err := hetznerDef.Read(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name(), err)
	}

	var order []*serverGroup
	groups := make(map[string]*serverGroup)

	for i, row := range rows {
		lineno := i + 1
		log := h.log.WithFields(logrus.Fields{"file": f.Name(), "row": lineno})

		id := row.Get("srv_id")
		if id != "" {
			if _, ok := groups[id]; !ok {
				g := &serverGroup{id: id, lineno: lineno}
				groups[id] = g
				order = append(order, g)
			}
		} else if m := serverInDescription.FindStringSubmatch(row.Get("description")); m != nil {
			id = m[1]
		}

		g, ok := groups[id]
		if !ok {
			log.WithField("description", row.Get("description")).Warn("line not attributable to a server, dropped")
			continue
		}

		net, err := policy.ToAmount(row.Get("price_no_vat"), h.opts.Currency)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", f.Name(), lineno, err)
		}
		g.add(row, net.Number)
	}

	entries := make([]model.Directive, 0, len(order))
	for _, g := range order {
		entries = append(entries, h.transaction(f, date, invoice, g))
	}
	return entries, nil
}

func (h *Hetzner) transaction(f *File, date time.Time, invoice string, g *serverGroup) *model.Transaction {
	expense := h.opts.Expense
	if acct, ok := h.opts.Servers.Get(g.id); ok {
		expense = acct
	}

	inv := policy.Invoice{
		Lines:      g.lines,
		VAT:        h.opts.Policy.VAT,
		Currency:   h.opts.Currency,
		Liability:  h.opts.Liability,
		Expense:    expense,
		VATAccount: h.opts.VATAccount,
	}

	meta := model.NewMetadata(f.Path, g.lineno)
	meta.Set("invoice", invoice)
	meta.Set("server", g.id)
	meta.SetIfPresent("start_period", g.start)
	meta.SetIfPresent("end_period", g.end)

	return &model.Transaction{
		Date:      date,
		Flag:      model.FlagOK,
		Payee:     hetznerPayee,
		Narration: fmt.Sprintf("Renting of server %s for the period %s to %s", g.id, g.start, g.end),
		Metadata:  meta,
		Postings:  h.opts.Policy.Posting.Postings(inv),
	}
}
