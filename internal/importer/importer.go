package importer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/ledger-import/internal/model"
)

// ErrNoImporter is returned when no registered importer claims a file.
var ErrNoImporter = errors.New("no importer identifies file")

// Importer converts one kind of export file into ledger directives.
type Importer interface {
	// Name identifies the importer instance.
	Name() string
	// Identify reports whether the importer can process f.
	Identify(f *File) bool
	// FileName is the name f gets when filed, without the date prefix.
	FileName(f *File) string
	// FileAccount is the account f is filed under.
	FileAccount(f *File) (string, error)
	// FileDate is the date f is filed under.
	FileDate(f *File) (time.Time, error)
	// Extract returns the directives read from f.
	Extract(f *File) ([]model.Directive, error)
}

// withImporter tags log with the importer name. A nil log discards output.
func withImporter(log logrus.FieldLogger, name string) logrus.FieldLogger {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return log.WithField("importer", name)
}

// Registry holds named importers in registration order.
type Registry struct {
	importers []Importer
	byName    map[string]Importer
}

// NewRegistry creates an empty importer registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Importer)}
}

// Register adds an importer. Panics on duplicate name.
func (r *Registry) Register(imp Importer) {
	key := strings.ToLower(imp.Name())
	if _, ok := r.byName[key]; ok {
		panic("duplicate importer name: " + key)
	}
	r.byName[key] = imp
	r.importers = append(r.importers, imp)
}

// Get returns the importer registered under name, or nil.
func (r *Registry) Get(name string) Importer {
	return r.byName[strings.ToLower(name)]
}

// All returns the importers in registration order.
func (r *Registry) All() []Importer {
	return r.importers
}

// Identify returns the first importer that identifies f.
func (r *Registry) Identify(f *File) (Importer, error) {
	for _, imp := range r.importers {
		if imp.Identify(f) {
			return imp, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoImporter, f.Path)
}

// Scan returns the CSV files under the given paths, sorted. Directories are
// walked recursively; files are taken as given.
func Scan(paths ...string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(strings.ToLower(d.Name()), ".csv") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
	}
	sort.Strings(files)
	return files, nil
}
