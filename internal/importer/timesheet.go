package importer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/ledger-import/internal/accounts"
	"github.com/cleared-dev/ledger-import/internal/model"
)

const (
	timesheetHeader     = "DATE;DAYTYPE;STD;DAYTYPE2;TIMESPENT;DAYTYPE3;TIMEREC"
	timesheetDateFormat = "02/01/2006"
	timesheetPrefix     = "smals-ts-report."
)

// ErrUnknownDayType is returned for day-type combinations that are not
// classified.
var ErrUnknownDayType = errors.New("unknown day type")

var timesheetDef = &FileDef{
	Pattern:   regexp.MustCompile(`^smals-report-(?P<date>\d{4}(?:0[1-9]|1[0-2]))-cleaned\.csv$`),
	Comma:     ';',
	Fields:    []string{"DATE", "DAYTYPE", "STD", "DAYTYPE2", "TIMESPENT", "DAYTYPE3", "TIMEREC", "DAYTYPE4", "TIMESPENT2"},
	HasHeader: true,
}

// DayKind classifies a timesheet day.
type DayKind int

const (
	DayIgnored DayKind = iota
	DayWorked
	DayHalfVacation
	DayVacation
	DaySick
	DayHoliday
)

func (k DayKind) String() string {
	switch k {
	case DayIgnored:
		return "ignored"
	case DayWorked:
		return "worked"
	case DayHalfVacation:
		return "half-vacation"
	case DayVacation:
		return "vacation"
	case DaySick:
		return "sick"
	case DayHoliday:
		return "holiday"
	default:
		return "DayKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ClassifyDay maps the DAYTYPE, DAYTYPE2 and DAYTYPE3 codes of a row.
func ClassifyDay(dayType, presence, absence string) (DayKind, error) {
	switch dayType {
	case "WK-PT", "-":
		return DayIgnored, nil
	}
	if presence == "PRE" {
		if absence == "CAO" {
			return DayHalfVacation, nil
		}
		return DayWorked, nil
	}
	switch absence {
	case "JFR", "COLFE":
		return DayHoliday, nil
	case "MAL":
		return DaySick, nil
	case "CAO":
		return DayVacation, nil
	}
	return DayIgnored, fmt.Errorf("%w: %q/%q/%q", ErrUnknownDayType, dayType, presence, absence)
}

// Day is one classified timesheet row.
type Day struct {
	Date time.Time
	Kind DayKind
	// Spent is the time worked in minutes.
	Spent int
}

// TimesheetOptions configures the timesheet importer.
type TimesheetOptions struct {
	// StandardDay is the contractual day as "H:MM". Defaults to 7:36.
	StandardDay string

	Employer string
	Customer string

	CommodityOvertime string
	CommodityVacation string
	CommodityWorked   string
	CommoditySick     string

	EmployerRoot     string
	EmployerOvertime string
	EmployerHoliday  string
	EmployerWorked   string
	EmployerSick     string
	CustomerOvertime string
	CustomerWorked   string
	Vacation         string
	Sick             string
}

func (o *TimesheetOptions) setDefaults() {
	defaults := []struct {
		field *string
		value string
	}{
		{&o.StandardDay, "7:36"},
		{&o.CommodityOvertime, "EXTHR"},
		{&o.CommodityVacation, "VACDAY"},
		{&o.CommodityWorked, "WORKDAY"},
		{&o.CommoditySick, "SICKDAY"},
	}
	for _, d := range defaults {
		if *d.field == "" {
			*d.field = d.value
		}
	}
}

func (o *TimesheetOptions) validate() error {
	fields := []struct {
		key, value string
	}{
		{"employer_root", o.EmployerRoot},
		{"employer_overtime", o.EmployerOvertime},
		{"employer_holiday", o.EmployerHoliday},
		{"employer_worked", o.EmployerWorked},
		{"employer_sick", o.EmployerSick},
		{"customer_overtime", o.CustomerOvertime},
		{"customer_worked", o.CustomerWorked},
		{"vacation", o.Vacation},
		{"sick", o.Sick},
	}
	for _, f := range fields {
		if !accounts.ValidAccount(f.value) {
			return fmt.Errorf("invalid %s account %q", f.key, f.value)
		}
	}
	return nil
}

// Timesheet imports the monthly timesheet report of a customer and books
// worked days, overtime, vacation and sick days per month.
type Timesheet struct {
	name     string
	opts     TimesheetOptions
	standard int
	log      logrus.FieldLogger
}

// NewTimesheet validates opts and creates a Timesheet importer.
func NewTimesheet(name string, opts TimesheetOptions, log logrus.FieldLogger) (*Timesheet, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("timesheet %s: %w", name, err)
	}
	standard, err := parseClock(opts.StandardDay)
	if err != nil {
		return nil, fmt.Errorf("timesheet %s: standard day: %w", name, err)
	}
	return &Timesheet{name: name, opts: opts, standard: standard, log: withImporter(log, name)}, nil
}

func (t *Timesheet) Name() string { return t.name }

// Identify matches the report name and its header line.
func (t *Timesheet) Identify(f *File) bool {
	return timesheetDef.Match(f.Path) && strings.HasPrefix(f.Head(), timesheetHeader)
}

func (t *Timesheet) FileName(f *File) string {
	return timesheetPrefix + f.Name()
}

func (t *Timesheet) FileAccount(*File) (string, error) {
	return t.opts.EmployerRoot, nil
}

// FileDate is the first day of the report month.
func (t *Timesheet) FileDate(f *File) (time.Time, error) {
	return timesheetDef.DateIn(f.Path, "200601")
}

// Extract classifies each day and emits the month totals every time the
// month changes and at the end of the report.
func (t *Timesheet) Extract(f *File) ([]model.Directive, error) {
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	rows, err := timesheetDef.Read(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name(), err)
	}

	var entries []model.Directive
	acc := NewMonthAccumulator(t.opts, t.standard)

	for i, row := range rows {
		// header is line 1
		lineno := i + 2

		date, err := time.Parse(timesheetDateFormat, row.Get("DATE"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: parsing date: %w", f.Name(), lineno, err)
		}

		if acc.IsOpen() && !acc.Holds(date) {
			entries = append(entries, acc.Close()...)
		}
		if !acc.IsOpen() {
			acc.Open(date, f.Path, lineno)
		}

		kind, err := ClassifyDay(row.Get("DAYTYPE"), row.Get("DAYTYPE2"), row.Get("DAYTYPE3"))
		if err != nil {
			t.log.WithFields(logrus.Fields{"file": f.Name(), "row": lineno, "date": row.Get("DATE")}).
				Warnf("%v, row dropped", err)
			continue
		}

		day := Day{Date: date, Kind: kind}
		if kind == DayWorked || kind == DayHalfVacation {
			day.Spent, err = parseClock(row.Get("TIMESPENT"))
			if err != nil {
				return nil, fmt.Errorf("%s row %d: time spent: %w", f.Name(), lineno, err)
			}
		}
		acc.Add(day, lineno)
	}

	if acc.IsOpen() {
		entries = append(entries, acc.Close()...)
	}
	return entries, nil
}

// MonthAccumulator sums the days of one calendar month.
type MonthAccumulator struct {
	opts     TimesheetOptions
	standard int

	open   bool
	year   int
	month  time.Month
	source string
	lineno int

	overtime decimal.Decimal
	vacation decimal.Decimal
	worked   int
	sick     int
	holidays int
}

// NewMonthAccumulator creates a closed accumulator for a standard day of
// standard minutes.
func NewMonthAccumulator(opts TimesheetOptions, standard int) *MonthAccumulator {
	return &MonthAccumulator{opts: opts, standard: standard}
}

// IsOpen reports whether a month is being accumulated.
func (a *MonthAccumulator) IsOpen() bool { return a.open }

// Holds reports whether date falls in the open month.
func (a *MonthAccumulator) Holds(date time.Time) bool {
	return a.open && date.Year() == a.year && date.Month() == a.month
}

// Open starts accumulating the month of date with zero totals.
func (a *MonthAccumulator) Open(date time.Time, source string, lineno int) {
	*a = MonthAccumulator{
		opts:     a.opts,
		standard: a.standard,
		open:     true,
		year:     date.Year(),
		month:    date.Month(),
		source:   source,
		lineno:   lineno,
	}
}

// Add counts one day.
func (a *MonthAccumulator) Add(d Day, lineno int) {
	a.lineno = lineno
	switch d.Kind {
	case DayWorked:
		a.worked++
		a.overtime = a.overtime.Add(decimal.NewFromInt(int64(d.Spent - a.standard)))
	case DayHalfVacation:
		a.worked++
		a.vacation = a.vacation.Add(decimal.NewFromFloat(0.5))
		a.overtime = a.overtime.Add(decimal.NewFromFloat(float64(d.Spent) - float64(a.standard)/2))
	case DayVacation:
		a.vacation = a.vacation.Add(decimal.NewFromInt(1))
	case DaySick:
		a.sick++
	case DayHoliday:
		a.holidays++
	}
}

// Overtime returns the accumulated overtime in minutes.
func (a *MonthAccumulator) Overtime() decimal.Decimal { return a.overtime }

// Vacation returns the accumulated vacation days.
func (a *MonthAccumulator) Vacation() decimal.Decimal { return a.vacation }

// Close emits the transactions of the open month, dated on its last day, and
// closes the accumulator. The overtime and worked-day transactions are always
// emitted; vacation and sick ones only when non-zero.
func (a *MonthAccumulator) Close() []model.Directive {
	if !a.open {
		return nil
	}
	o := a.opts
	date := time.Date(a.year, a.month+1, 0, 0, 0, 0, 0, time.UTC)
	period := date.Format("2006-01")

	meta := func() model.Metadata {
		m := model.NewMetadata(a.source, a.lineno)
		m.Set("month", period)
		return m
	}
	txn := func(flag model.Flag, payee, narration string, n decimal.Decimal, commodity, debit, credit string) *model.Transaction {
		amount := model.NewAmount(n, commodity)
		return &model.Transaction{
			Date:      date,
			Flag:      flag,
			Payee:     payee,
			Narration: narration,
			Metadata:  meta(),
			Postings: []model.Posting{
				{Account: debit, Units: amount},
				{Account: credit, Units: amount.Neg()},
			},
		}
	}

	entries := []model.Directive{
		txn(model.FlagOK, o.Customer, "Overtime "+period, a.overtime, o.CommodityOvertime,
			o.EmployerOvertime, o.CustomerOvertime),
		txn(model.FlagOK, o.Customer, "Worked days "+period, decimal.NewFromInt(int64(a.worked)), o.CommodityWorked,
			o.EmployerWorked, o.CustomerWorked),
	}
	if !a.vacation.IsZero() {
		entries = append(entries, txn(model.FlagWarning, o.Employer, "Vacation "+period, a.vacation, o.CommodityVacation,
			o.Vacation, o.EmployerHoliday))
	}
	if a.sick > 0 {
		entries = append(entries, txn(model.FlagOK, o.Employer, "Sick days "+period, decimal.NewFromInt(int64(a.sick)), o.CommoditySick,
			o.Sick, o.EmployerSick))
	}
	if a.holidays > 0 {
		if t, ok := entries[1].(*model.Transaction); ok {
			t.Metadata.Set("holidays", strconv.Itoa(a.holidays))
		}
	}

	a.open = false
	return entries
}

// parseClock converts "7:36" to minutes.
func parseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 || minutes > 59 || len(m) != 2 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return hours*60 + minutes, nil
}
