// Package accounts maps identifiers seen in exports (IBANs, server ids) to
// ledger account names.
package accounts

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrUnmapped is returned when an external identifier has no ledger account.
var ErrUnmapped = errors.New("unmapped account")

var accountPattern = regexp.MustCompile(`^(Assets|Liabilities|Equity|Income|Expenses)(:[\p{Lu}\p{N}][\p{L}\p{N}-]*)+$`)

// ValidAccount reports whether name is a well-formed ledger account.
func ValidAccount(name string) bool {
	return accountPattern.MatchString(name)
}

// Entry is one external id to account mapping.
type Entry struct {
	Key     string
	Account string
}

// Map provides lookup over a set of entries.
type Map struct {
	name  string
	byKey map[string]string
	raw   map[string]string
}

// NewMap creates a Map from a plain map. Keys are normalized, so
// "BE27 0639 8251 6873" and "be27063982516873" are the same key.
func NewMap(name string, m map[string]string) *Map {
	am := &Map{name: name, byKey: make(map[string]string, len(m)), raw: make(map[string]string, len(m))}
	for k, v := range m {
		am.add(k, v)
	}
	return am
}

// FromEntries creates a Map from entries; later entries win.
func FromEntries(name string, entries []Entry) *Map {
	am := NewMap(name, nil)
	for _, e := range entries {
		am.add(e.Key, e.Account)
	}
	return am
}

func (m *Map) add(key, account string) {
	m.byKey[normalize(key)] = account
	m.raw[key] = account
}

// Merge adds entries that are not already mapped.
func (m *Map) Merge(entries []Entry) {
	for _, e := range entries {
		if _, ok := m.byKey[normalize(e.Key)]; ok {
			continue
		}
		m.add(e.Key, e.Account)
	}
}

// Name returns the map name used in error messages.
func (m *Map) Name() string {
	if m == nil {
		return ""
	}
	return m.name
}

// Lookup returns the account for key, or an error wrapping ErrUnmapped.
func (m *Map) Lookup(key string) (string, error) {
	if acct, ok := m.Get(key); ok {
		return acct, nil
	}
	if m.Name() != "" {
		return "", fmt.Errorf("%w: %q in %s map", ErrUnmapped, key, m.name)
	}
	return "", fmt.Errorf("%w: %q", ErrUnmapped, key)
}

// Get returns the account for key.
func (m *Map) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	acct, ok := m.byKey[normalize(key)]
	return acct, ok
}

// Exists reports whether key is mapped.
func (m *Map) Exists(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of mapped keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.byKey)
}

// Entries returns the mappings sorted by key, with keys as configured.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}
	entries := make([]Entry, 0, len(m.raw))
	for k, v := range m.raw {
		entries = append(entries, Entry{Key: k, Account: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// Validate returns an error for the first account that is not a valid name.
func (m *Map) Validate() error {
	for _, e := range m.Entries() {
		if !ValidAccount(e.Account) {
			return fmt.Errorf("%s map: invalid account %q for %q", m.name, e.Account, e.Key)
		}
	}
	return nil
}

func normalize(key string) string {
	return strings.ToUpper(strings.Join(strings.Fields(key), ""))
}
