package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/xpense/internal/cli"
	"github.com/Veraticus/xpense/internal/model"
	"github.com/spf13/cobra"
)

func categoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories"},
		Short:   "Manage expense categories",
		Long: `Add, rename, restyle and delete the categories expenses are filed under.

Category names are also what CSV and OFX imports match against.`,
		Example: `  # List all categories
  xpense category list

  # Add a category with its own color and icon
  xpense category add "Pets" --color "#f97316" --icon "🐶"

  # Rename a category
  xpense category update <id> --name "Groceries"`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			categories := s.ledger.Categories()
			if len(categories) == 0 {
				out(cmd, "%s\n", cli.SubtleStyle.Render("No categories found."))
				return nil
			}

			counts := make(map[string]int)
			for _, e := range s.ledger.Expenses() {
				counts[e.CategoryID]++
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, cli.FormatHeader("ID", "NAME", "COLOR", "EXPENSES"))
			for _, c := range categories {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
					c.ID, cli.FormatCategory(c.Icon, c.Name, c.Color), c.Color, counts[c.ID])
			}
			return w.Flush()
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var color, icon string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			category, err := s.ledger.AddCategory(ctx, args[0], color, icon)
			if err != nil {
				return fmt.Errorf("failed to add category: %w", err)
			}

			out(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Added category %s (%s)",
				cli.FormatCategory(category.Icon, category.Name, category.Color), category.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "Display color (default "+model.DefaultCategoryColor+")")
	cmd.Flags().StringVar(&icon, "icon", "", "Display icon (default "+model.DefaultCategoryIcon+")")

	return cmd
}

func updateCategoryCmd() *cobra.Command {
	var name, color, icon string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a category's name, color or icon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var update model.CategoryUpdate
			if cmd.Flags().Changed("name") {
				trimmed := strings.TrimSpace(name)
				update.Name = &trimmed
			}
			if cmd.Flags().Changed("color") {
				update.Color = &color
			}
			if cmd.Flags().Changed("icon") {
				update.Icon = &icon
			}
			if update.IsEmpty() {
				return errors.New("nothing to update: pass --name, --color or --icon")
			}

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			category, err := s.ledger.UpdateCategory(ctx, args[0], update)
			if err != nil {
				return fmt.Errorf("failed to update category: %w", err)
			}

			out(cmd, "%s\n", cli.FormatSuccess("Updated category "+
				cli.FormatCategory(category.Icon, category.Name, category.Color)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&color, "color", "", "New display color")
	cmd.Flags().StringVar(&icon, "icon", "", "New display icon")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category with no expenses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.ledger.DeleteCategory(ctx, args[0]); err != nil {
				return err
			}

			out(cmd, "%s\n", cli.FormatSuccess("Deleted category "+args[0]))
			return nil
		},
	}
}
