package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/xpense/internal/cli"
	"github.com/Veraticus/xpense/internal/report"
	"github.com/spf13/cobra"
)

func summaryCmd() *cobra.Command {
	var (
		month  string
		all    bool
		recent int
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show spending by category for a month",
		Example: `  # This month
  xpense summary

  # A specific month, with the ten most recent expenses
  xpense summary --month 2024-03 --recent 10

  # Everything
  xpense summary --all`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			period, err := parsePeriod(month, all, time.Now())
			if err != nil {
				return err
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			summary := report.Summarize(s.ledger.Expenses(), s.ledger.Categories(), period, recent)
			out(cmd, "%s\n", renderSummary(summary))
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month in YYYY-MM form (default: current month)")
	cmd.Flags().BoolVar(&all, "all", false, "Summarize every expense")
	cmd.Flags().IntVar(&recent, "recent", report.DefaultRecent, "Number of recent expenses to show")

	return cmd
}

func renderSummary(summary report.Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Total: %s across %d expenses\n", summary.Total.StringFixed(2), summary.Count)

	if len(summary.ByCategory) == 0 {
		b.WriteString(cli.SubtleStyle.Render("No expenses in this period."))
		return cli.RenderBox(cli.ChartIcon+" "+summary.Period.Label(), b.String())
	}

	b.WriteString("\n")
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, slice := range summary.ByCategory {
		fmt.Fprintf(w, "%s\t%s\t%s%%\t%d\n",
			cli.FormatCategory(slice.Icon, slice.Name, slice.Color),
			slice.Value.StringFixed(2),
			slice.Share(summary.Total).StringFixed(1),
			slice.Count)
	}
	_ = w.Flush()

	if len(summary.Recent) > 0 {
		b.WriteString("\nRecent:\n")
		w = tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		for _, e := range summary.Recent {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", e.Date, formatAmount(e.Amount), e.Description)
		}
		_ = w.Flush()
	}

	return cli.RenderBox(cli.ChartIcon+" "+summary.Period.Label(), strings.TrimRight(b.String(), "\n"))
}
