// Package csvexport writes expenses as CSV the importer can read back.
package csvexport

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Veraticus/xpense/internal/model"
	"github.com/Veraticus/xpense/internal/report"
	"github.com/gocarina/gocsv"
)

// Row is one exported expense. Category holds the category name so the file
// re-imports through name matching.
type Row struct {
	Date        string `csv:"Date"`
	Category    string `csv:"Category"`
	Amount      string `csv:"Amount"`
	Description string `csv:"Description"`
}

// Rows converts expenses to export rows, preserving order.
func Rows(expenses []model.Expense, categories []model.Category) []Row {
	rows := make([]Row, len(expenses))
	for i, e := range expenses {
		name := report.UnknownCategoryName
		if c, ok := model.FindCategory(categories, e.CategoryID); ok {
			name = c.Name
		}
		rows[i] = Row{
			Date:        e.Date,
			Category:    name,
			Amount:      strconv.FormatFloat(e.Amount, 'f', -1, 64),
			Description: e.Description,
		}
	}
	return rows
}

// Write renders expenses as CSV with a header row.
func Write(w io.Writer, expenses []model.Expense, categories []model.Category) error {
	rows := Rows(expenses, categories)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
