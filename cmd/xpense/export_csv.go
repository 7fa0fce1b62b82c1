package main

import (
	"fmt"
	"io"
	"time"

	"github.com/Veraticus/xpense/internal/cli"
	"github.com/Veraticus/xpense/internal/csvexport"
	"github.com/Veraticus/xpense/internal/report"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export expenses to other formats",
	}

	cmd.AddCommand(exportCSVCmd())

	return cmd
}

func exportCSVCmd() *cobra.Command {
	var (
		output string
		month  string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Export expenses as CSV",
		Long: `Export expenses as CSV with Date, Category, Amount and Description columns.

The file can be imported again with "xpense import csv".`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			period, err := parsePeriod(month, all || month == "", time.Now())
			if err != nil {
				return err
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			expenses := report.Filter(s.ledger.Expenses(), period)
			write := func(w io.Writer) error {
				return csvexport.Write(w, expenses, s.ledger.Categories())
			}

			if output == "" || output == "-" {
				return write(cmd.OutOrStdout())
			}
			if err := writeFile(output, write); err != nil {
				return fmt.Errorf("failed to write CSV: %w", err)
			}

			out(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Exported %d expenses to %s", len(expenses), output)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&month, "month", "", "Only export one month, in YYYY-MM form")
	cmd.Flags().BoolVar(&all, "all", false, "Export every expense (default unless --month is set)")

	return cmd
}
