package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger-import/internal/accounts"
	"github.com/cleared-dev/ledger-import/internal/config"
	"github.com/cleared-dev/ledger-import/internal/gitops"
)

func newInitCommand() *cobra.Command {
	var name string
	var git bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a ledger directory with a default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, name, git)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "ledger name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().BoolVar(&git, "git", true, "initialize a git repository and commit")

	return cmd
}

func runInit(out io.Writer, dir, name string, git bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	cfg := config.Default()
	cfg.Name = name

	dirs := []string{"accounts", "import", cfg.Documents, "logs"}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Empty account maps, ready to be referenced from the config.
	for _, m := range []string{"assets", "liabilities", "incomes", "expenses"} {
		path := filepath.Join(dir, "accounts", m+".csv")
		if err := writeAccountMap(path); err != nil {
			return err
		}
	}

	gitignore := ".env\nimport/*\n!import/.gitkeep\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	for _, d := range []string{"import", cfg.Documents, "logs"} {
		if err := os.WriteFile(filepath.Join(dir, d, ".gitkeep"), []byte{}, 0o644); err != nil {
			return fmt.Errorf("writing .gitkeep: %w", err)
		}
	}

	if !git {
		fmt.Fprintf(out, "Initialized ledger %s at %s\n", name, dir)
		return nil
	}

	if err := gitops.Init(dir); err != nil {
		return fmt.Errorf("git init: %w", err)
	}

	hash, err := gitops.CommitAll(dir, "init: Initialize "+name, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(out, "Initialized ledger %s at %s (%s)\n", name, dir, hash)
	return nil
}

func writeAccountMap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating account map: %w", err)
	}
	defer f.Close()

	if err := accounts.WriteEntries(f, nil); err != nil {
		return fmt.Errorf("writing account map %s: %w", path, err)
	}
	return nil
}
