package importer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrDestinationExists is returned when filing would overwrite a document.
var ErrDestinationExists = errors.New("destination already exists")

// Destination returns where imp files f under root:
// <root>/<Account/Components>/<YYYY-MM-DD>.<file name>.
func Destination(root string, imp Importer, f *File) (string, error) {
	account, err := imp.FileAccount(f)
	if err != nil {
		return "", fmt.Errorf("file account of %s: %w", f.Name(), err)
	}
	date, err := imp.FileDate(f)
	if err != nil {
		return "", fmt.Errorf("file date of %s: %w", f.Name(), err)
	}

	name := imp.FileName(f)
	prefix := date.Format("2006-01-02")
	if !strings.HasPrefix(name, prefix) {
		name = prefix + "." + name
	}

	dir := filepath.Join(append([]string{root}, strings.Split(account, ":")...)...)
	return filepath.Join(dir, name), nil
}

// MoveDocument moves src to dst, creating the parent directory. An existing
// dst is never overwritten.
func MoveDocument(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", dst, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating document dir: %w", err)
	}

	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to %s: %w", src, dst, err)
	}
	return nil
}
