package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newIdentifyCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "identify PATH...",
		Short: "List the files an importer recognizes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load(cmd)
			if err != nil {
				return err
			}

			matches, err := rt.identify(args)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, m := range matches {
				account, err := m.importer.FileAccount(m.file)
				if err != nil {
					account = "?"
				}
				date := "?"
				if d, err := m.importer.FileDate(m.file); err == nil {
					date = d.Format("2006-01-02")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.file.Path, m.importer.Name(), account, date)
			}
			return tw.Flush()
		},
	}
}
