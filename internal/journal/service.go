package journal

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cleared-dev/ledger-import/internal/model"
)

// Service validates extracted directives and writes them out.
type Service struct {
	now func() time.Time
}

// NewService creates a journal Service.
func NewService() *Service {
	return &Service{now: time.Now}
}

// Check validates directives and folds all violations into one error.
func (s *Service) Check(directives []model.Directive) error {
	verrs := Validate(directives)
	if len(verrs) == 0 {
		return nil
	}
	msgs := make([]string, len(verrs))
	for i, ve := range verrs {
		msgs[i] = ve.Error()
	}
	return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
}

// Write validates directives and writes them to w under a comment naming
// their source file.
func (s *Service) Write(w io.Writer, source string, directives []model.Directive) error {
	if err := s.Check(directives); err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	return write(w, source, directives)
}

func write(w io.Writer, source string, directives []model.Directive) error {
	if _, err := fmt.Fprintf(w, ";; -*- %s -*-\n\n", source); err != nil {
		return fmt.Errorf("writing source header: %w", err)
	}
	if err := WriteDirectives(w, directives); err != nil {
		return fmt.Errorf("writing %s: %w", source, err)
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return fmt.Errorf("writing %s: %w", source, err)
	}
	return nil
}

// Append validates directives and appends them to the ledger file at path,
// creating the directory and a header comment if the file is new.
func (s *Service) Append(path, source string, directives []model.Directive) error {
	if err := s.Check(directives); err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintf(f, "; Imported by ledger-import on %s\n\n", s.now().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	return write(f, source, directives)
}
