package commands_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger-import/internal/importlog"
)

const ledgerConfig = `
documents: documents
belfius:
  - assets:
      entries:
        BE27 0639 8251 6873: Assets:BE:Belfius:Checking
        BE68 5390 0754 7034: Assets:BE:Belfius:Savings
    incomes:
      entries:
        BE43 0689 9999 9501: Income:BE:Customer
    expenses:
      entries:
        PROXIMUS: Expenses:Telecom
hetzner:
  - liability_account: Liabilities:BE:Hetzner
    expense_account: Expenses:Hosting
    vat_account: Assets:BE:VAT:Deductible
timesheet:
  - employer: My Employer s.a.
    customer: Customer s.a.
    employer_root: Assets:BE:Employer
    employer_overtime: Assets:BE:Employer:Overtime
    employer_holiday: Assets:BE:Employer:Vacation
    employer_worked: Assets:BE:Employer:Worked
    employer_sick: Assets:BE:Employer:Sick
    customer_overtime: Income:BE:Customer:Overtime
    customer_worked: Income:BE:Customer:Worked
    vacation: Expenses:Vacation
    sick: Expenses:Sick
`

var fixtures = []string{
	"BE27 0639 8251 6873 2018-07-08 14-31-01 2.csv",
	"Hetzner-2018-07-09-R0005123456.csv",
	"smals-report-201801-cleaned.csv",
}

// newLedger creates a ledger directory with a config and the fixtures in
// import/. It returns the config path and the import directory.
func newLedger(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ledger-import.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(ledgerConfig), 0o644))

	in := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(in, 0o755))
	for _, name := range fixtures {
		data, err := os.ReadFile(filepath.Join("../../testdata", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(in, name), data, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.csv"), []byte("a,b\n"), 0o644))
	return cfgPath, in
}

func TestIdentify(t *testing.T) {
	cfgPath, in := newLedger(t)
	stdout, stderr, err := runLedgerImport(t, "-c", cfgPath, "identify", in)
	require.NoError(t, err, stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, stdout, "belfius")
	assert.Contains(t, stdout, "Assets:BE:Belfius:Checking")
	assert.Contains(t, stdout, "Liabilities:BE:Hetzner")
	assert.Contains(t, stdout, "2018-01-01")
	assert.NotContains(t, stdout, "notes.csv")
	assert.Contains(t, stderr, "no importer")
}

func TestExtract_Stdout(t *testing.T) {
	cfgPath, in := newLedger(t)
	stdout, stderr, err := runLedgerImport(t, "-c", cfgPath, "extract", in)
	require.NoError(t, err, stderr)

	assert.Contains(t, stdout, ";; -*- "+filepath.Join(in, fixtures[0])+" -*-")
	assert.Contains(t, stdout, `2018-07-05 * "ACME SPRL" "Facture 2018-042"`)
	assert.Contains(t, stdout, `bic: "GKCCBEBB"`)
	assert.Contains(t, stdout, "2018-07-09 balance Assets:BE:Belfius:Checking")
	assert.Contains(t, stdout, `2018-07-09 * "Hetzner" "Renting of server 101111 for the period 2018-06-01 to 2018-06-30"`)
	assert.Contains(t, stdout, "-8.47 EUR")
	assert.Contains(t, stdout, `2018-01-31 ! "My Employer s.a." "Vacation 2018-01"`)
	assert.Contains(t, stdout, "0.5 VACDAY")

	assert.Contains(t, stderr, "unknown account, row skipped")
	assert.NoFileExists(t, filepath.Join(filepath.Dir(cfgPath), "logs", "import-log.csv"))
}

func TestExtract_Output(t *testing.T) {
	cfgPath, in := newLedger(t)
	root := filepath.Dir(cfgPath)
	ledger := filepath.Join(root, "ledger", "imported.beancount")

	stdout, stderr, err := runLedgerImport(t, "-c", cfgPath, "extract", "-o", ledger, in)
	require.NoError(t, err, stderr)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(ledger)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "; Imported by ledger-import on "))
	assert.Contains(t, string(data), "Liabilities:BE:Hetzner")

	entries, err := importlog.Read(root)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, importlog.ActionExtract, e.Action)
		assert.Equal(t, ledger, e.Target)
		assert.Positive(t, e.Entries)
	}
}

func TestExtract_Failure(t *testing.T) {
	cfgPath, in := newLedger(t)
	bad := filepath.Join(in, "smals-report-201802-cleaned.csv")
	require.NoError(t, os.WriteFile(bad,
		[]byte("DATE;DAYTYPE;STD;DAYTYPE2;TIMESPENT;DAYTYPE3;TIMEREC\nnot-a-date;WK;7:36;PRE;7:36;-;7:36\n"), 0o644))

	stdout, stderr, err := runLedgerImport(t, "-c", cfgPath, "extract", in)
	require.Error(t, err)
	assert.Contains(t, stderr, "1 of 4 files failed")
	assert.Contains(t, stdout, "Hetzner", "other files are still extracted")
}

func TestExtract_BadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ledger-import.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("hetzner:\n  - posting_policy: double\n"), 0o644))

	_, stderr, err := runLedgerImport(t, "-c", cfgPath, "extract", dir)
	require.Error(t, err)
	assert.Contains(t, stderr, "invalid posting policy")
}

func TestFile_DryRun(t *testing.T) {
	cfgPath, in := newLedger(t)
	root := filepath.Dir(cfgPath)

	stdout, stderr, err := runLedgerImport(t, "-c", cfgPath, "file", "--dry-run", in)
	require.NoError(t, err, stderr)

	assert.Contains(t, stdout, filepath.Join(root, "documents", "Assets", "BE", "Belfius", "Checking",
		"2018-07-08.BE27-0639-8251-6873-2018-07-08-14-31-01-2.csv"))
	for _, name := range fixtures {
		assert.FileExists(t, filepath.Join(in, name))
	}
	assert.NoDirExists(t, filepath.Join(root, "documents"))
}

func TestFile(t *testing.T) {
	cfgPath, in := newLedger(t)
	root := filepath.Dir(cfgPath)

	_, stderr, err := runLedgerImport(t, "-c", cfgPath, "file", in)
	require.NoError(t, err, stderr)

	docs := filepath.Join(root, "documents")
	for _, p := range []string{
		"Assets/BE/Belfius/Checking/2018-07-08.BE27-0639-8251-6873-2018-07-08-14-31-01-2.csv",
		"Liabilities/BE/Hetzner/2018-07-09.Hetzner-2018-07-09-R0005123456.csv",
		"Assets/BE/Employer/2018-01-01.smals-ts-report.smals-report-201801-cleaned.csv",
	} {
		assert.FileExists(t, filepath.Join(docs, filepath.FromSlash(p)))
	}
	for _, name := range fixtures {
		assert.NoFileExists(t, filepath.Join(in, name))
	}
	assert.FileExists(t, filepath.Join(in, "notes.csv"))

	entries, err := importlog.Read(root)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, importlog.Filed(entries, filepath.Join(in, fixtures[1])))
}

func TestFile_Commit(t *testing.T) {
	cfgPath, in := newLedger(t)
	root := filepath.Dir(cfgPath)
	git(t, root, "init", "--quiet")

	_, stderr, err := runLedgerImport(t, "-c", cfgPath, "file", "--commit", in)
	require.NoError(t, err, stderr)

	assert.Contains(t, git(t, root, "log", "--format=%s", "-1"), "file: 3 document(s)")
	files := git(t, root, "ls-files")
	assert.Contains(t, files, "documents/Liabilities/BE/Hetzner/2018-07-09.Hetzner-2018-07-09-R0005123456.csv")
	assert.NotContains(t, files, "notes.csv")

	entries, err := importlog.Read(root)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.NotEmpty(t, entries[0].CommitHash)
}
