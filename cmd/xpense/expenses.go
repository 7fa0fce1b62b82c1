package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/xpense/internal/cli"
	"github.com/Veraticus/xpense/internal/ledger"
	"github.com/Veraticus/xpense/internal/model"
	"github.com/Veraticus/xpense/internal/normalize"
	"github.com/Veraticus/xpense/internal/report"
	"github.com/spf13/cobra"
)

func expenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expense",
		Aliases: []string{"expenses"},
		Short:   "Record and manage expenses",
		Example: `  # Record a lunch
  xpense expense add --amount 12.50 --category "Food & Dining" --description "Lunch"

  # List this month's expenses
  xpense expense list

  # Fix an amount
  xpense expense update <id> --amount 14.00`,
	}

	cmd.AddCommand(addExpenseCmd())
	cmd.AddCommand(listExpensesCmd())
	cmd.AddCommand(updateExpenseCmd())
	cmd.AddCommand(deleteExpenseCmd())
	cmd.AddCommand(clearExpensesCmd())

	return cmd
}

// expenseFlags are the editable fields shared by add and update.
type expenseFlags struct {
	amount      string
	category    string
	description string
	date        string
}

func (f *expenseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.amount, "amount", "a", "", "Amount spent, e.g. 12.50 or $1,200")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "Category name or id")
	cmd.Flags().StringVarP(&f.description, "description", "m", "", "Free-text description")
	cmd.Flags().StringVar(&f.date, "date", "", "Date in YYYY-MM-DD form (default: today)")
}

// apply overwrites the fields of draft whose flags were given.
func (f *expenseFlags) apply(cmd *cobra.Command, s *session, draft model.ExpenseDraft) (model.ExpenseDraft, error) {
	if cmd.Flags().Changed("amount") {
		amount, err := normalize.Amount(f.amount)
		if err != nil {
			return draft, err
		}
		draft.Amount = amount.InexactFloat64()
	}
	if cmd.Flags().Changed("category") {
		category, err := resolveCategory(s.cfg, s.ledger.Categories(), f.category)
		if err != nil {
			return draft, err
		}
		draft.CategoryID = category.ID
	}
	if cmd.Flags().Changed("description") {
		draft.Description = strings.TrimSpace(f.description)
	}
	if cmd.Flags().Changed("date") {
		draft.Date = strings.TrimSpace(f.date)
	}
	return draft, nil
}

func addExpenseCmd() *cobra.Command {
	var flags expenseFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new expense",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			draft, err := flags.apply(cmd, s, model.ExpenseDraft{Date: model.FormatDate(time.Now())})
			if err != nil {
				return err
			}

			expense, err := s.ledger.AddExpense(ctx, draft)
			if err != nil {
				return fmt.Errorf("failed to add expense: %w", err)
			}

			out(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Added %s %s (%s)",
				formatAmount(expense.Amount), categoryLabel(s.ledger, expense.CategoryID), expense.ID)))
			return nil
		},
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func listExpensesCmd() *cobra.Command {
	var (
		month string
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses for a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			period, err := parsePeriod(month, all, time.Now())
			if err != nil {
				return err
			}

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			expenses := report.Filter(s.ledger.Expenses(), period)
			if len(expenses) == 0 {
				out(cmd, "%s\n", cli.SubtleStyle.Render("No expenses for "+period.Label()+"."))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, cli.FormatHeader("ID", "DATE", "CATEGORY", "AMOUNT", "DESCRIPTION"))
			for _, e := range expenses {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.Date, categoryLabel(s.ledger, e.CategoryID), formatAmount(e.Amount), e.Description)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month in YYYY-MM form (default: current month)")
	cmd.Flags().BoolVar(&all, "all", false, "List every expense")

	return cmd
}

func updateExpenseCmd() *cobra.Command {
	var flags expenseFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an existing expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			var current *model.Expense
			for _, e := range s.ledger.Expenses() {
				if e.ID == args[0] {
					current = &e
					break
				}
			}
			if current == nil {
				return fmt.Errorf("%w: %s", ledger.ErrExpenseNotFound, args[0])
			}

			draft, err := flags.apply(cmd, s, current.Draft())
			if err != nil {
				return err
			}

			expense, err := s.ledger.UpdateExpense(ctx, current.ID, draft)
			if err != nil {
				return fmt.Errorf("failed to update expense: %w", err)
			}

			out(cmd, "%s\n", cli.FormatSuccess("Updated "+expense.ID))
			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func deleteExpenseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.ledger.DeleteExpense(ctx, args[0]); err != nil {
				return err
			}

			out(cmd, "%s\n", cli.FormatSuccess("Deleted "+args[0]))
			return nil
		},
	}
}

func clearExpensesCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every expense (categories are kept)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			ok, err := confirmer(cmd, yes).Confirm(ctx, ledger.MsgClearPrompt)
			if err != nil {
				return err
			}
			if !ok {
				out(cmd, "%s\n", cli.SubtleStyle.Render("Clear cancelled."))
				return nil
			}

			n, err := s.ledger.ClearExpenses(ctx)
			if err != nil {
				return fmt.Errorf("failed to clear expenses: %w", err)
			}

			out(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Deleted %d expenses", n)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func categoryLabel(l *ledger.Ledger, id string) string {
	if c, ok := l.Category(id); ok {
		return strings.TrimSpace(c.Icon + " " + c.Name)
	}
	return report.UnknownCategoryName
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
