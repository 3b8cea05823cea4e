package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/ledger-import/internal/policy"
)

// FileName is the default configuration file name.
const FileName = "ledger-import.yaml"

// Config represents the top-level ledger-import.yaml configuration.
type Config struct {
	Name      string            `yaml:"name,omitempty"`
	Log       LogConfig         `yaml:"log"`
	Documents string            `yaml:"documents" env:"LEDGER_IMPORT_DOCUMENTS"`
	Output    string            `yaml:"output,omitempty" env:"LEDGER_IMPORT_OUTPUT"`
	Git       GitConfig         `yaml:"git"`
	Belfius   []BelfiusConfig   `yaml:"belfius,omitempty"`
	Hetzner   []HetznerConfig   `yaml:"hetzner,omitempty"`
	Timesheet []TimesheetConfig `yaml:"timesheet,omitempty"`

	// dir is the directory of the loaded file; relative paths resolve
	// against it.
	dir string
}

// LogConfig controls diagnostics on stderr.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEDGER_IMPORT_LOG_LEVEL"`
	Format string `yaml:"format" env:"LEDGER_IMPORT_LOG_FORMAT"` // "text" or "json"
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit" env:"LEDGER_IMPORT_GIT_AUTO_COMMIT"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// AccountMap is an inline mapping, a CSV file of mappings, or both. Inline
// entries win over the file.
type AccountMap struct {
	File    string            `yaml:"file,omitempty"`
	Entries map[string]string `yaml:"entries,omitempty"`
}

// BelfiusConfig configures one Belfius statement importer.
type BelfiusConfig struct {
	Name            string     `yaml:"name,omitempty"`
	Assets          AccountMap `yaml:"assets"`
	Liabilities     AccountMap `yaml:"liabilities,omitempty"`
	Incomes         AccountMap `yaml:"incomes,omitempty"`
	Expenses        AccountMap `yaml:"expenses,omitempty"`
	SuspenseAccount string     `yaml:"suspense_account,omitempty"`
	Currency        string     `yaml:"currency,omitempty"`
}

// HetznerConfig configures one Hetzner invoice importer.
type HetznerConfig struct {
	Name             string     `yaml:"name,omitempty"`
	LiabilityAccount string     `yaml:"liability_account"`
	ExpenseAccount   string     `yaml:"expense_account"`
	VATAccount       string     `yaml:"vat_account,omitempty"`
	Servers          AccountMap `yaml:"servers,omitempty"`
	PostingPolicy    string     `yaml:"posting_policy"`
	VATRate          int        `yaml:"vat_rate"`
	Currency         string     `yaml:"currency,omitempty"`
}

// TimesheetConfig configures one timesheet report importer.
type TimesheetConfig struct {
	Name        string `yaml:"name,omitempty"`
	StandardDay string `yaml:"standard_day"`
	Employer    string `yaml:"employer"`
	Customer    string `yaml:"customer"`

	CommodityOvertime string `yaml:"commodity_overtime"`
	CommodityVacation string `yaml:"commodity_vacation"`
	CommodityWorked   string `yaml:"commodity_worked"`
	CommoditySick     string `yaml:"commodity_sick"`

	EmployerRoot     string `yaml:"employer_root"`
	EmployerOvertime string `yaml:"employer_overtime"`
	EmployerHoliday  string `yaml:"employer_holiday"`
	EmployerWorked   string `yaml:"employer_worked"`
	EmployerSick     string `yaml:"employer_sick"`
	CustomerOvertime string `yaml:"customer_overtime"`
	CustomerWorked   string `yaml:"customer_worked"`
	Vacation         string `yaml:"vacation"`
	Sick             string `yaml:"sick"`
}

// Load reads a ledger-import.yaml file from disk. A .env file next to it is
// loaded first; LEDGER_IMPORT_* variables override file values and defaults
// fill whatever is left unset.
func Load(path string) (*Config, error) {
	dir := filepath.Dir(path)
	if err := loadDotEnv(filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	cfg.dir = dir
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

func (c *Config) applyDefaults() error {
	def := Default()
	if err := mergo.Merge(c, *def); err != nil {
		return fmt.Errorf("merging defaults: %w", err)
	}
	for i := range c.Hetzner {
		if err := mergo.Merge(&c.Hetzner[i], defaultHetzner); err != nil {
			return fmt.Errorf("merging hetzner defaults: %w", err)
		}
	}
	for i := range c.Timesheet {
		if err := mergo.Merge(&c.Timesheet[i], defaultTimesheet); err != nil {
			return fmt.Errorf("merging timesheet defaults: %w", err)
		}
	}
	return nil
}

// Dir returns the directory relative paths in the config resolve against.
func (c *Config) Dir() string {
	if c.dir == "" {
		return "."
	}
	return c.dir
}

// Path resolves p against the config directory.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir(), p)
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

var defaultHetzner = HetznerConfig{
	PostingPolicy: policy.Default().Posting.String(),
	VATRate:       int(policy.Default().VAT),
	Currency:      "EUR",
}

var defaultTimesheet = TimesheetConfig{
	StandardDay:       "7:36",
	CommodityOvertime: "EXTHR",
	CommodityVacation: "VACDAY",
	CommodityWorked:   "WORKDAY",
	CommoditySick:     "SICKDAY",
}

// Default returns a Config with sensible defaults for a new ledger.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Documents: "documents",
		Git: GitConfig{
			AuthorName:  "ledger-import",
			AuthorEmail: "ledger-import@localhost",
		},
	}
}
