package model

import "strings"

// MetaEntry is one key/value pair attached to a directive.
type MetaEntry struct {
	Key   string
	Value string
}

// Metadata holds the origin of a directive and its ordered key/value pairs.
type Metadata struct {
	Filename string
	Lineno   int
	Entries  []MetaEntry
}

// NewMetadata returns metadata pointing at a source file and line.
func NewMetadata(filename string, lineno int) Metadata {
	return Metadata{Filename: filename, Lineno: lineno}
}

// Set adds key or replaces its value.
func (m *Metadata) Set(key, value string) {
	for i := range m.Entries {
		if m.Entries[i].Key == key {
			m.Entries[i].Value = value
			return
		}
	}
	m.Entries = append(m.Entries, MetaEntry{Key: key, Value: value})
}

// SetIfPresent sets key only when value is not blank.
func (m *Metadata) SetIfPresent(key, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	m.Set(key, value)
}

// Get returns the value for key.
func (m Metadata) Get(key string) (string, bool) {
	for _, e := range m.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Has reports whether key is set.
func (m Metadata) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (m Metadata) Keys() []string {
	keys := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		keys[i] = e.Key
	}
	return keys
}
