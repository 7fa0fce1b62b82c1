package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Veraticus/xpense/internal/cli"
	"github.com/Veraticus/xpense/internal/common"
	"github.com/Veraticus/xpense/internal/ledger"
	"github.com/spf13/cobra"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore every expense and category",
		Long: `Write all expenses and categories to a JSON backup, or replace them with
the contents of one.

Restoring is destructive: both collections are replaced wholesale after you
confirm. A checkpoint of the database is taken first.`,
		Example: `  # Write xpense_backup_<date>.json to the backup directory
  xpense backup export

  # Restore without prompting
  xpense backup import xpense_backup_2024-03-01.json --yes`,
	}

	cmd.AddCommand(exportBackupCmd())
	cmd.AddCommand(importBackupCmd())

	return cmd
}

func exportBackupCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if output == "-" {
				return s.ledger.ExportBackup(cmd.OutOrStdout())
			}

			path := output
			if path == "" {
				path = filepath.Join(s.cfg.Backup.Dir, s.ledger.BackupFileName())
			}

			if err := writeFile(path, s.ledger.ExportBackup); err != nil {
				return fmt.Errorf("failed to write backup: %w", err)
			}

			out(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Exported %d expenses and %d categories to %s",
				len(s.ledger.Expenses()), len(s.ledger.Categories()), path)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, or - for stdout (default: <backup.dir>/xpense_backup_<date>.json)")

	return cmd
}

func importBackupCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all data with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return common.NewUserError(ledger.MsgRestoreFailed, err)
			}

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			restored, err := s.ledger.RestoreBackup(ctx, data, confirmer(cmd, yes))
			if err != nil {
				return err
			}
			if !restored {
				out(cmd, "%s\n", cli.SubtleStyle.Render("Restore cancelled."))
				return nil
			}

			notifier(cmd).Notify(ledger.MsgRestoreSuccess)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// writeFile creates path and its directory, then streams write into it.
func writeFile(path string, write func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return write(f)
}
