package ofx

import (
	"log/slog"

	"github.com/Veraticus/xpense/internal/csvimport"
	"github.com/Veraticus/xpense/internal/model"
	"github.com/Veraticus/xpense/internal/normalize"
)

// ToDrafts converts debit entries into expense drafts. The category is
// matched from the merchant name, then the raw NAME; fallback, when non-nil,
// catches the rest. Credits, unmatched debits and debits too small or too
// large for a float64 amount are counted as skipped.
func ToDrafts(entries []Entry, matcher *normalize.CategoryMatcher, fallback *model.Category) ([]model.ExpenseDraft, csvimport.Result) {
	result := csvimport.Result{Errors: []string{}}
	drafts := make([]model.ExpenseDraft, 0, len(entries))

	for _, e := range entries {
		if !e.IsDebit() {
			slog.Debug("Skipping OFX credit", "fitid", e.FiTID, "amount", e.Amount.String())
			continue
		}

		amount := e.Amount.Abs().InexactFloat64()
		if !model.ValidAmount(amount) {
			slog.Debug("Skipping OFX entry with unrepresentable amount", "fitid", e.FiTID, "amount", e.Amount.String())
			continue
		}

		category, ok := matcher.Match(e.Merchant)
		if !ok && e.Name != e.Merchant {
			category, ok = matcher.Match(e.Name)
		}
		if !ok && fallback != nil {
			category, ok = *fallback, true
		}
		if !ok {
			slog.Debug("Skipping OFX entry without category", "fitid", e.FiTID, "merchant", e.Merchant)
			continue
		}

		description := e.Merchant
		if description == "" {
			description = e.Name
		}

		drafts = append(drafts, model.ExpenseDraft{
			Amount:      amount,
			CategoryID:  category.ID,
			Description: description,
			Date:        model.FormatDate(e.Posted),
		})
	}

	result.Imported = len(drafts)
	result.Skipped = len(entries) - len(drafts)
	return drafts, result
}
