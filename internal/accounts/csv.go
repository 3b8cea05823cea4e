package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	numFields  = 2
	colKey     = 0
	colAccount = 1
)

// Header is the CSV header of an account map file.
const Header = "external_id,account"

// ReadEntries reads an account map CSV (external_id,account).
func ReadEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading account map CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// WriteEntries writes an account map CSV including the header.
func WriteEntries(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colKey] = e.Key
	row[colAccount] = e.Account
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	key := strings.TrimSpace(record[colKey])
	if key == "" {
		return Entry{}, fmt.Errorf("empty external_id")
	}

	account := strings.TrimSpace(record[colAccount])
	if !ValidAccount(account) {
		return Entry{}, fmt.Errorf("invalid account name %q", account)
	}

	return Entry{Key: key, Account: account}, nil
}

// LoadFile reads an account map CSV from disk.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening account map: %w", err)
	}
	defer f.Close()

	entries, err := ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("reading account map %s: %w", path, err)
	}
	return entries, nil
}
