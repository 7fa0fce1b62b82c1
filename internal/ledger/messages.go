package ledger

import (
	"fmt"
	"strings"

	"github.com/Veraticus/xpense/internal/csvimport"
)

// User-facing notification and prompt text.
const (
	MsgRestorePrompt  = "Importing this data will replace your current expenses and categories. Proceed?"
	MsgRestoreSuccess = "Data imported successfully!"
	MsgRestoreFailed  = "Failed to import data. Please ensure the file is a valid Xpense backup."
	MsgClearPrompt    = "Are you sure you want to clear all data? This cannot be undone."
	MsgCategoryInUse  = "Cannot delete category with existing expenses. Please re-assign or delete those expenses first."
	MsgCSVReadFailed  = "Failed to parse CSV file."
	MsgCSVNoneFound   = "No valid expenses found in CSV. Ensure columns: Date, Expense Category, Amount. Category names must match your app categories."
)

// ImportMessage renders the notification shown after a CSV import.
func ImportMessage(result csvimport.Result) string {
	if result.HasErrors() {
		msg := "CSV Import Issues:\n" + strings.Join(result.Errors, "\n")
		if result.Imported > 0 {
			msg += fmt.Sprintf("\n\nImported %d expenses. %d rows skipped.", result.Imported, result.Skipped)
		}
		return msg
	}
	if result.Imported == 0 {
		return MsgCSVNoneFound
	}
	return fmt.Sprintf("Imported %d expenses from CSV. %d rows skipped (unmatched category or invalid data).",
		result.Imported, result.Skipped)
}
