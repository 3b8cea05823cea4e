// Package importlog keeps a CSV audit trail of extracted and filed
// documents under logs/import-log.csv.
package importlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Action is what was done to a source document.
type Action string

const (
	ActionExtract Action = "extract"
	ActionFile    Action = "file"
)

// Entry is one row in the import log.
type Entry struct {
	Timestamp  time.Time
	Importer   string
	Action     Action
	Source     string
	Target     string // output file or filing destination
	Entries    int
	CommitHash string
}

// Header is the CSV header for import-log.csv.
const Header = "timestamp,importer,action,source,target,entries,commit_hash"

const (
	numFields     = 7
	logDir        = "logs"
	logFile       = "logs/import-log.csv"
	colTimestamp  = 0
	colImporter   = 1
	colAction     = 2
	colSource     = 3
	colTarget     = 4
	colEntries    = 5
	colCommitHash = 6
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colImporter] = e.Importer
	row[colAction] = string(e.Action)
	row[colSource] = e.Source
	row[colTarget] = e.Target
	row[colEntries] = strconv.Itoa(e.Entries)
	row[colCommitHash] = e.CommitHash
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	n, err := strconv.Atoi(record[colEntries])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing entries %q: %w", record[colEntries], err)
	}

	switch Action(record[colAction]) {
	case ActionExtract, ActionFile:
	default:
		return Entry{}, fmt.Errorf("unknown action %q", record[colAction])
	}

	return Entry{
		Timestamp:  ts,
		Importer:   record[colImporter],
		Action:     Action(record[colAction]),
		Source:     record[colSource],
		Target:     record[colTarget],
		Entries:    n,
		CommitHash: record[colCommitHash],
	}, nil
}

// Append writes entries to <root>/logs/import-log.csv, creating the file
// and header if needed.
func Append(root string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Join(root, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <root>/logs/import-log.csv.
// Returns an empty slice if the file does not exist.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(root, logFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

// Filed reports whether source was already filed according to entries.
func Filed(entries []Entry, source string) bool {
	for _, e := range entries {
		if e.Action == ActionFile && e.Source == source {
			return true
		}
	}
	return false
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading import log CSV: %w", err)
	}

	if len(records) <= 1 {
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
