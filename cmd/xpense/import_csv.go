package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/xpense/internal/cli"
	"github.com/Veraticus/xpense/internal/common"
	"github.com/Veraticus/xpense/internal/ledger"
	"github.com/Veraticus/xpense/internal/service"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import expenses from bank exports",
	}

	cmd.AddCommand(importCSVCmd())
	cmd.AddCommand(importOFXCmd())

	return cmd
}

func importCSVCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "csv [files...]",
		Short: "Import expenses from CSV files",
		Long: `Import expenses from CSV files with Date, Category and Amount columns.

Headers are matched loosely ("Transaction Date", "expense_category", "Cost"),
and each row's category text must match one of your category names. Rows that
cannot be parsed or matched are skipped and counted.`,
		Example: `  # Import a single export
  xpense import csv ~/Downloads/expenses.csv

  # Import every CSV in a directory
  xpense import csv ~/Downloads/*.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportCSV,
	}
}

func runImportCSV(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	notify := notifier(cmd)

	var progress *cli.Progress
	if len(files) > 1 {
		progress = cli.NewProgress(cmd.ErrOrStderr(), len(files), "Importing CSV files...")
		if interrupts != nil {
			interrupts.SetNote("Files imported so far have been saved. Re-run the import for the rest.")
		}
	}

	total := 0
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		imported, err := importCSVFile(cmd, s, notify, path, len(files) > 1)
		if err != nil {
			notify.Notify(filepath.Base(path) + ": " + common.UserMessage(err))
			slog.Error("Failed to import CSV file", "file", path, "error", err)
		}
		total += imported

		if progress != nil {
			progress.Step()
		}
	}

	if progress != nil {
		progress.Finish()
		common.LogInfo("Imported CSV files", common.Fields{"files": len(files), "expenses": total})
	}
	return nil
}

func importCSVFile(cmd *cobra.Command, s *session, notify service.Notifier, path string, named bool) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, common.NewUserError(ledger.MsgCSVReadFailed, err)
	}
	defer f.Close()

	committed, result, err := s.ledger.ImportCSVReader(cmd.Context(), f)
	if err != nil {
		return 0, err
	}

	msg := ledger.ImportMessage(result)
	if named {
		msg = fmt.Sprintf("%s: %s", filepath.Base(path), msg)
	}
	notify.Notify(msg)
	return len(committed), nil
}
