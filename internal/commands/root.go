package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger-import/internal/buildinfo"
	"github.com/cleared-dev/ledger-import/internal/config"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "ledger-import",
		Short:   "Import bank, invoice and timesheet CSV exports into a beancount ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.FileName, "configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level, overrides the configuration")

	rootCmd.AddCommand(
		newInitCommand(),
		newIdentifyCommand(opts),
		newExtractCommand(opts),
		newFileCommand(opts),
	)

	return rootCmd
}
