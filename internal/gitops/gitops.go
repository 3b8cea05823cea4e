// Package gitops records filed documents and ledger files in git.
package gitops

import (
	"fmt"
	"os/exec"
	"strings"
)

// Repo is a git work tree committed to under a fixed author.
type Repo struct {
	Dir         string
	AuthorName  string
	AuthorEmail string
}

// Init initializes a new git repository at dir.
func Init(dir string) error {
	if _, err := run(dir, "init", "--quiet"); err != nil {
		return err
	}
	return nil
}

// Open returns the repository containing dir.
func Open(dir, authorName, authorEmail string) (*Repo, error) {
	top, err := run(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%s is not in a git repository: %w", dir, err)
	}
	return &Repo{Dir: top, AuthorName: authorName, AuthorEmail: authorEmail}, nil
}

// IsRepo reports whether dir is inside a git work tree.
func IsRepo(dir string) bool {
	out, err := run(dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Commit stages paths (all changes when none are given), including
// deletions, and commits them. Returns the short commit hash, or "" when
// there was nothing to commit.
func (r *Repo) Commit(message string, paths ...string) (string, error) {
	add := []string{"add", "-A", "--"}
	if len(paths) == 0 {
		add = append(add, ".")
	}
	if _, err := run(r.Dir, append(add, paths...)...); err != nil {
		return "", err
	}

	if _, err := run(r.Dir, "diff", "--cached", "--quiet"); err == nil {
		return "", nil
	}

	author := fmt.Sprintf("%s <%s>", r.AuthorName, r.AuthorEmail)
	if _, err := run(r.Dir, "commit", "--quiet", "-m", message, "--author", author); err != nil {
		return "", err
	}

	return run(r.Dir, "rev-parse", "--short", "HEAD")
}

// Tracked reports whether path, relative to the work tree, is in the index.
func (r *Repo) Tracked(path string) bool {
	_, err := run(r.Dir, "ls-files", "--error-unmatch", "--", path)
	return err == nil
}

// CommitAll stages all files and creates a commit. Returns the short commit hash.
func CommitAll(dir, message, authorName, authorEmail string) (string, error) {
	r := &Repo{Dir: dir, AuthorName: authorName, AuthorEmail: authorEmail}
	return r.Commit(message)
}

func run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	// fixed committer; the author comes from config
	cmd.Env = append(cmd.Environ(),
		"GIT_COMMITTER_NAME=ledger-import",
		"GIT_COMMITTER_EMAIL=ledger-import@localhost",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}
