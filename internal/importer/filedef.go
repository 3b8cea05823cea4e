package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Row is one CSV record keyed by field name.
type Row map[string]string

// Get returns the trimmed value of field.
func (r Row) Get(field string) string {
	return strings.TrimSpace(r[field])
}

// FileDef describes an input file: how to recognize its name and how to
// read its rows.
type FileDef struct {
	// Pattern matches the whole base name. A named group "date" holds the
	// date token read by DateIn.
	Pattern *regexp.Regexp
	// Comma is the field delimiter.
	Comma rune
	// Fields names the columns in order.
	Fields []string
	// HasHeader skips the first record.
	HasHeader bool
	// Strict rejects records whose length differs from len(Fields).
	Strict bool
}

// Match reports whether the base name of path matches the pattern.
func (d *FileDef) Match(path string) bool {
	return d.Pattern.MatchString(filepath.Base(path))
}

// DateIn parses the "date" group of the filename with layout.
func (d *FileDef) DateIn(path, layout string) (time.Time, error) {
	name := filepath.Base(path)
	m := d.Pattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, fmt.Errorf("%s: name does not match %s", name, d.Pattern)
	}
	idx := d.Pattern.SubexpIndex("date")
	if idx < 0 {
		return time.Time{}, errors.New("file pattern has no date group")
	}
	date, err := time.Parse(layout, m[idx])
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q in %s: %w", m[idx], name, err)
	}
	return date, nil
}

// Group returns a named group of the filename match, or "".
func (d *FileDef) Group(path, name string) string {
	m := d.Pattern.FindStringSubmatch(filepath.Base(path))
	idx := d.Pattern.SubexpIndex(name)
	if m == nil || idx < 0 {
		return ""
	}
	return m[idx]
}

// Sanitize replaces spaces by hyphens.
func Sanitize(name string) string {
	return strings.ReplaceAll(name, " ", "-")
}

func (d *FileDef) csvReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = d.Comma
	cr.LazyQuotes = true
	if d.Strict {
		cr.FieldsPerRecord = len(d.Fields)
	} else {
		cr.FieldsPerRecord = -1
	}
	return cr
}

// Read returns all rows. Short records leave the missing fields empty;
// extra values are dropped.
func (d *FileDef) Read(r io.Reader) ([]Row, error) {
	records, err := d.csvReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	if d.HasHeader && len(records) > 0 {
		records = records[1:]
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, d.row(rec))
	}
	return rows, nil
}

func (d *FileDef) row(rec []string) Row {
	row := make(Row, len(d.Fields))
	for i, name := range d.Fields {
		if i < len(rec) {
			row[name] = rec[i]
		} else {
			row[name] = ""
		}
	}
	return row
}
