package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/Veraticus/xpense/internal/cli"
	"github.com/Veraticus/xpense/internal/model"
	"github.com/Veraticus/xpense/internal/normalize"
	"github.com/Veraticus/xpense/internal/ofx"
	"github.com/spf13/cobra"
)

func importOFXCmd() *cobra.Command {
	var (
		fallback string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "ofx [files...]",
		Short: "Import expenses from OFX/QFX files",
		Long: `Import debits from OFX or QFX (Quicken) files exported from your bank.

Each debit's payee is matched against your category names. Debits that match
nothing are skipped unless --category names a fallback. Credits are never
imported. Entries repeated across files are imported once.`,
		Example: `  # Import single file
  xpense import ofx ~/Downloads/chase_jan_2024.qfx

  # Import all QFX files, filing unmatched debits under Others
  xpense import ofx ~/Downloads/*.qfx --category Others

  # Preview without saving
  xpense import ofx ~/Downloads/chase_jan_2024.qfx --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			var fallbackCategory *model.Category
			if fallback != "" {
				c, err := resolveCategory(s.cfg, s.ledger.Categories(), fallback)
				if err != nil {
					return err
				}
				fallbackCategory = &c
			}

			entries := parseOFXFiles(cmd, files)

			matcher := normalize.NewCategoryMatcher(s.ledger.Categories(), matcherOptions(s.cfg)...)
			drafts, result := ofx.ToDrafts(entries, matcher, fallbackCategory)

			if dryRun {
				printDrafts(cmd, s, drafts)
				out(cmd, "%s\n", cli.FormatInfo(fmt.Sprintf(
					"Dry run: %d expenses would be imported, %d entries skipped.", result.Imported, result.Skipped)))
				return nil
			}

			if _, err := s.ledger.CommitDrafts(ctx, drafts); err != nil {
				return fmt.Errorf("failed to save imported expenses: %w", err)
			}

			slog.Info("Imported OFX expenses", "imported", result.Imported, "skipped", result.Skipped)
			notifier(cmd).Notify(fmt.Sprintf(
				"Imported %d expenses from OFX. %d entries skipped (credits or unmatched category).",
				result.Imported, result.Skipped))
			return nil
		},
	}

	cmd.Flags().StringVarP(&fallback, "category", "c", "", "Category for debits that match no category name")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Preview import without saving")

	return cmd
}

// parseOFXFiles parses every file, dropping entries already seen under the
// same account and FITID. Unreadable files are logged and skipped.
func parseOFXFiles(cmd *cobra.Command, files []string) []ofx.Entry {
	parser := ofx.NewParser()
	seen := make(map[string]bool)

	var progress *cli.Progress
	if len(files) > 1 {
		progress = cli.NewProgress(cmd.ErrOrStderr(), len(files), "Reading OFX files...")
	}

	var entries []ofx.Entry
	for _, path := range files {
		parsed, err := parseOFXFile(cmd, parser, path)
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", path, "error", err)
		}

		added := 0
		for _, e := range parsed {
			key := e.AccountID + "\x00" + e.FiTID
			if e.FiTID != "" && seen[key] {
				continue
			}
			seen[key] = true
			entries = append(entries, e)
			added++
		}

		slog.Debug("Processed file",
			"file", filepath.Base(path),
			"entries_found", len(parsed),
			"added", added,
			"duplicates", len(parsed)-added)

		if progress != nil {
			progress.Step()
		}
	}

	if progress != nil {
		progress.Finish()
	}
	return entries
}

func parseOFXFile(cmd *cobra.Command, parser *ofx.Parser, path string) ([]ofx.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parser.ParseFile(cmd.Context(), f)
}

func printDrafts(cmd *cobra.Command, s *session, drafts []model.ExpenseDraft) {
	if len(drafts) == 0 {
		return
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, cli.FormatHeader("DATE", "CATEGORY", "AMOUNT", "DESCRIPTION"))
	for _, d := range drafts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Date, categoryLabel(s.ledger, d.CategoryID), formatAmount(d.Amount), d.Description)
	}
	_ = w.Flush()
}
