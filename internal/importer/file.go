package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	headSize = 8 << 10
	bom      = "\ufeff"
)

// File is a candidate input file. Its contents are read lazily and cached so
// that identification and extraction read the disk once.
type File struct {
	Path string

	once     sync.Once
	contents []byte
	err      error
}

// NewFile wraps path.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Name returns the base name of the file.
func (f *File) Name() string {
	return filepath.Base(f.Path)
}

// Contents returns the whole file.
func (f *File) Contents() ([]byte, error) {
	f.once.Do(func() {
		f.contents, f.err = os.ReadFile(f.Path)
		if f.err != nil {
			f.err = fmt.Errorf("reading %s: %w", f.Path, f.err)
		}
	})
	return f.contents, f.err
}

// Head returns up to the first 8 KiB of the file as text, with a UTF-8 BOM
// removed. An unreadable file has an empty head.
func (f *File) Head() string {
	data, err := f.Contents()
	if err != nil {
		return ""
	}
	if len(data) > headSize {
		data = data[:headSize]
	}
	return strings.TrimPrefix(string(data), bom)
}

// Reader returns a reader over the contents.
func (f *File) Reader() (io.Reader, error) {
	data, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return strings.NewReader(strings.TrimPrefix(string(data), bom)), nil
}
