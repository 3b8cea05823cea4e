package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/ledger-import/internal/accounts"
	"github.com/cleared-dev/ledger-import/internal/importer"
	"github.com/cleared-dev/ledger-import/internal/policy"
)

// Validate checks what can be checked without touching the filesystem:
// logging, importer names and invoice policies.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	seen := make(map[string]bool)
	for _, name := range c.importerNames() {
		key := strings.ToLower(name)
		if seen[key] {
			errs = append(errs, fmt.Errorf("duplicate importer name %q", name))
		}
		seen[key] = true
	}

	for i, h := range c.Hetzner {
		if _, err := h.Policy(); err != nil {
			errs = append(errs, fmt.Errorf("hetzner[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// Policy parses the configured posting policy and VAT rate.
func (h HetznerConfig) Policy() (policy.Policy, error) {
	p, err := policy.ParsePostingPolicy(h.PostingPolicy)
	if err != nil {
		return policy.Policy{}, err
	}
	vat, err := policy.ParseVATRate(h.VATRate)
	if err != nil {
		return policy.Policy{}, err
	}
	return policy.New(p, vat)
}

func importerName(kind, name string, i, n int) string {
	switch {
	case name != "":
		return name
	case n == 1:
		return kind
	default:
		return fmt.Sprintf("%s-%d", kind, i+1)
	}
}

func (c *Config) importerNames() []string {
	var names []string
	for i, b := range c.Belfius {
		names = append(names, importerName("belfius", b.Name, i, len(c.Belfius)))
	}
	for i, h := range c.Hetzner {
		names = append(names, importerName("hetzner", h.Name, i, len(c.Hetzner)))
	}
	for i, t := range c.Timesheet {
		names = append(names, importerName("timesheet", t.Name, i, len(c.Timesheet)))
	}
	return names
}

// Load builds the account map, reading the mapping file relative to the
// config directory. Inline entries win over the file.
func (m AccountMap) Load(c *Config, name string) (*accounts.Map, error) {
	am := accounts.NewMap(name, m.Entries)
	if m.File != "" {
		entries, err := accounts.LoadFile(c.Path(m.File))
		if err != nil {
			return nil, fmt.Errorf("%s map: %w", name, err)
		}
		am.Merge(entries)
	}
	return am, nil
}

// Registry builds every configured importer, in configuration order
// Belfius, Hetzner, timesheet.
func (c *Config) Registry(log logrus.FieldLogger) (*importer.Registry, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	reg := importer.NewRegistry()

	for i, bc := range c.Belfius {
		name := importerName("belfius", bc.Name, i, len(c.Belfius))
		opts := importer.BelfiusOptions{SuspenseAccount: bc.SuspenseAccount, Currency: bc.Currency}

		maps := []struct {
			cfg AccountMap
			key string
			dst **accounts.Map
		}{
			{bc.Assets, "assets", &opts.Assets},
			{bc.Liabilities, "liabilities", &opts.Liabilities},
			{bc.Incomes, "incomes", &opts.Incomes},
			{bc.Expenses, "expenses", &opts.Expenses},
		}
		for _, m := range maps {
			am, err := m.cfg.Load(c, name+" "+m.key)
			if err != nil {
				return nil, err
			}
			*m.dst = am
		}

		imp, err := importer.NewBelfius(name, opts, log)
		if err != nil {
			return nil, err
		}
		reg.Register(imp)
	}

	for i, hc := range c.Hetzner {
		name := importerName("hetzner", hc.Name, i, len(c.Hetzner))
		pol, err := hc.Policy()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		servers, err := hc.Servers.Load(c, name+" servers")
		if err != nil {
			return nil, err
		}
		imp, err := importer.NewHetzner(name, importer.HetznerOptions{
			Liability:  hc.LiabilityAccount,
			Expense:    hc.ExpenseAccount,
			VATAccount: hc.VATAccount,
			Servers:    servers,
			Policy:     pol,
			Currency:   hc.Currency,
		}, log)
		if err != nil {
			return nil, err
		}
		reg.Register(imp)
	}

	for i, tc := range c.Timesheet {
		name := importerName("timesheet", tc.Name, i, len(c.Timesheet))
		imp, err := importer.NewTimesheet(name, importer.TimesheetOptions{
			StandardDay:       tc.StandardDay,
			Employer:          tc.Employer,
			Customer:          tc.Customer,
			CommodityOvertime: tc.CommodityOvertime,
			CommodityVacation: tc.CommodityVacation,
			CommodityWorked:   tc.CommodityWorked,
			CommoditySick:     tc.CommoditySick,
			EmployerRoot:      tc.EmployerRoot,
			EmployerOvertime:  tc.EmployerOvertime,
			EmployerHoliday:   tc.EmployerHoliday,
			EmployerWorked:    tc.EmployerWorked,
			EmployerSick:      tc.EmployerSick,
			CustomerOvertime:  tc.CustomerOvertime,
			CustomerWorked:    tc.CustomerWorked,
			Vacation:          tc.Vacation,
			Sick:              tc.Sick,
		}, log)
		if err != nil {
			return nil, err
		}
		reg.Register(imp)
	}

	return reg, nil
}
