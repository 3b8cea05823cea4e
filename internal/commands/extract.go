package commands

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger-import/internal/importlog"
	"github.com/cleared-dev/ledger-import/internal/journal"
	"github.com/cleared-dev/ledger-import/internal/model"
)

func newExtractCommand(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "extract PATH...",
		Short: "Extract ledger entries from recognized files",
		Long: `Extract runs the importer that recognizes each file and prints the
resulting beancount directives, or appends them to the ledger file given
with --output (or the "output" configuration key).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if output == "" && rt.cfg.Output != "" {
				output = rt.cfg.Path(rt.cfg.Output)
			}
			return runExtract(cmd, rt, args, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "append to this ledger file instead of printing")

	return cmd
}

func runExtract(cmd *cobra.Command, rt *runtime, paths []string, output string) error {
	matches, err := rt.identify(paths)
	if err != nil {
		return err
	}

	svc := journal.NewService()
	var logEntries []importlog.Entry
	failed := 0

	for _, m := range matches {
		log := rt.log.WithFields(logrus.Fields{"file": m.file.Path, "importer": m.importer.Name()})

		directives, err := m.importer.Extract(m.file)
		if err == nil {
			model.SortDirectives(directives)
			if output != "" {
				err = svc.Append(output, m.file.Path, directives)
			} else {
				err = svc.Write(cmd.OutOrStdout(), m.file.Path, directives)
			}
		}
		if err != nil {
			log.WithError(err).Error("extraction failed")
			failed++
			continue
		}

		log.WithField("entries", len(directives)).Info("extracted")
		if output != "" {
			logEntries = append(logEntries, importlog.Entry{
				Timestamp: time.Now().UTC(),
				Importer:  m.importer.Name(),
				Action:    importlog.ActionExtract,
				Source:    m.file.Path,
				Target:    output,
				Entries:   len(directives),
			})
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
