package commands

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger-import/internal/gitops"
	"github.com/cleared-dev/ledger-import/internal/importer"
	"github.com/cleared-dev/ledger-import/internal/importlog"
)

type fileOptions struct {
	documents string
	dryRun    bool
	commit    bool
}

func newFileCommand(opts *rootOptions) *cobra.Command {
	fo := &fileOptions{}

	cmd := &cobra.Command{
		Use:   "file PATH...",
		Short: "Move recognized files into the dated documents archive",
		Long: `File moves each recognized file to
<documents>/<Account/Components>/<YYYY-MM-DD>.<name>, using the account,
date and name its importer reports. Existing documents are never replaced.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if fo.documents == "" {
				fo.documents = rt.cfg.Path(rt.cfg.Documents)
			}
			if !cmd.Flags().Changed("commit") {
				fo.commit = rt.cfg.Git.AutoCommit
			}
			return runFile(cmd, rt, args, fo)
		},
	}

	cmd.Flags().StringVar(&fo.documents, "documents", "", "documents archive root (default from config)")
	cmd.Flags().BoolVar(&fo.dryRun, "dry-run", false, "print destinations without moving anything")
	cmd.Flags().BoolVar(&fo.commit, "commit", false, "commit the filed documents with git (default from config)")

	return cmd
}

func runFile(cmd *cobra.Command, rt *runtime, paths []string, fo *fileOptions) error {
	matches, err := rt.identify(paths)
	if err != nil {
		return err
	}

	history, err := importlog.Read(rt.cfg.Dir())
	if err != nil {
		rt.log.WithError(err).Warn("failed to read import log")
	}

	out := cmd.OutOrStdout()
	var (
		logEntries []importlog.Entry
		filed      []filing
		failed     int
	)

	for _, m := range matches {
		log := rt.log.WithFields(logrus.Fields{"file": m.file.Path, "importer": m.importer.Name()})
		if importlog.Filed(history, m.file.Path) {
			log.Warn("a file with this path was filed before")
		}

		dst, err := importer.Destination(fo.documents, m.importer, m.file)
		if err != nil {
			log.WithError(err).Error("no destination")
			failed++
			continue
		}

		if fo.dryRun {
			fmt.Fprintf(out, "%s -> %s\n", m.file.Path, dst)
			continue
		}

		if err := importer.MoveDocument(m.file.Path, dst); err != nil {
			log.WithError(err).Error("filing failed")
			failed++
			continue
		}
		fmt.Fprintf(out, "%s -> %s\n", m.file.Path, dst)
		log.WithField("destination", dst).Info("filed")

		filed = append(filed, filing{source: m.file.Path, destination: dst})
		logEntries = append(logEntries, importlog.Entry{
			Timestamp: time.Now().UTC(),
			Importer:  m.importer.Name(),
			Action:    importlog.ActionFile,
			Source:    m.file.Path,
			Target:    dst,
		})
	}

	if fo.commit && len(logEntries) > 0 {
		hash, err := commitFiled(rt, fo.documents, filed)
		if err != nil {
			rt.log.WithError(err).Error("commit failed")
			failed++
		}
		for i := range logEntries {
			logEntries[i].CommitHash = hash
		}
	}

	if err := importlog.Append(rt.cfg.Dir(), logEntries); err != nil {
		rt.log.WithError(err).Warn("failed to write import log")
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(matches))
	}
	return nil
}

type filing struct {
	source      string
	destination string
}

// commitFiled commits the filed documents, and the removal of their sources
// when those were tracked in the same repository.
func commitFiled(rt *runtime, documents string, filed []filing) (string, error) {
	repo, err := gitops.Open(documents, rt.cfg.Git.AuthorName, rt.cfg.Git.AuthorEmail)
	if err != nil {
		return "", err
	}

	var inRepo []string
	for _, f := range filed {
		if rel, ok := within(repo.Dir, f.destination); ok {
			inRepo = append(inRepo, rel)
		}
		if rel, ok := within(repo.Dir, f.source); ok && repo.Tracked(rel) {
			inRepo = append(inRepo, rel)
		}
	}
	if len(inRepo) == 0 {
		return "", nil
	}

	msg := fmt.Sprintf("file: %d document(s)", len(filed))
	hash, err := repo.Commit(msg, inRepo...)
	if err != nil {
		return "", err
	}
	rt.log.WithField("commit", hash).Info("committed filed documents")
	return hash, nil
}

// within returns p relative to root when p lies inside root.
func within(root, p string) (string, bool) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", false
	}
	if resolved, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(resolved, filepath.Base(abs))
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
