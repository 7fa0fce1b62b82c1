package csvimport

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Veraticus/xpense/internal/model"
	"github.com/Veraticus/xpense/internal/normalize"
)

// Structural error messages.
const (
	ErrMsgTooFewLines     = "CSV must have a header row and at least one data row"
	ErrMsgMissingDate     = "Could not detect Date column. Use headers like: Date, Transaction Date"
	ErrMsgMissingCategory = "Could not detect Expense Category column. Use headers like: Category, Expense Category"
	ErrMsgMissingAmount   = "Could not detect Amount column. Use headers like: Amount, Value, Expense"
)

var missingMessages = map[Role]string{
	RoleDate:     ErrMsgMissingDate,
	RoleCategory: ErrMsgMissingCategory,
	RoleAmount:   ErrMsgMissingAmount,
}

// Result summarizes one import. Imported+Skipped equals the number of data
// rows whenever column detection succeeds.
type Result struct {
	Errors   []string `json:"errors"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
}

// HasErrors reports whether the import failed structurally.
func (r Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Summary renders the counts for display.
func (r Result) Summary() string {
	if r.HasErrors() {
		return strings.Join(r.Errors, "\n")
	}
	return fmt.Sprintf("Imported %d expenses, skipped %d rows", r.Imported, r.Skipped)
}

// Importer converts CSV text into expense drafts.
type Importer struct {
	dates       *normalize.DateParser
	matcherOpts []normalize.MatcherOption
	dateFormats []string
}

// Option configures an Importer.
type Option func(*Importer)

// WithDateFormats sets the ordered list of accepted date layouts.
func WithDateFormats(formats []string) Option {
	return func(i *Importer) {
		i.dateFormats = formats
	}
}

// WithMatcherOptions passes options through to the category matcher.
func WithMatcherOptions(opts ...normalize.MatcherOption) Option {
	return func(i *Importer) {
		i.matcherOpts = append(i.matcherOpts, opts...)
	}
}

// New creates an Importer.
func New(opts ...Option) *Importer {
	i := &Importer{}
	for _, opt := range opts {
		opt(i)
	}
	i.dates = normalize.NewDateParser(i.dateFormats)
	return i
}

// Import parses text against categories. It never mutates its inputs and
// returns no drafts when the result carries errors.
func (i *Importer) Import(text string, categories []model.Category) ([]model.ExpenseDraft, Result) {
	result := Result{Errors: []string{}}

	lines := splitLines(text)
	if len(lines) < 2 {
		result.Errors = append(result.Errors, ErrMsgTooFewLines)
		return nil, result
	}

	cols := DetectColumns(SplitRow(lines[0]))
	if missing := cols.Missing(); len(missing) > 0 {
		for _, role := range missing {
			result.Errors = append(result.Errors, missingMessages[role])
		}
		return nil, result
	}

	matcher := normalize.NewCategoryMatcher(categories, i.matcherOpts...)
	drafts := make([]model.ExpenseDraft, 0, len(lines)-1)

	for n, line := range lines[1:] {
		fields := SplitRow(line)
		rawDate := field(fields, cols.Date)
		rawCategory := field(fields, cols.Category)
		rawAmount := field(fields, cols.Amount)

		date, err := i.dates.Normalize(rawDate)
		if err != nil {
			slog.Debug("Skipping CSV row", "row", n+1, "reason", "date", "error", err)
			continue
		}

		amount, err := normalize.Amount(rawAmount)
		if err != nil {
			slog.Debug("Skipping CSV row", "row", n+1, "reason", "amount", "error", err)
			continue
		}
		value := amount.InexactFloat64()
		if !amount.IsPositive() || !model.ValidAmount(value) {
			slog.Debug("Skipping CSV row", "row", n+1, "reason", "amount out of range", "amount", amount.String())
			continue
		}

		category, ok := matcher.Match(rawCategory)
		if !ok {
			slog.Debug("Skipping CSV row", "row", n+1, "reason", "category", "category", rawCategory)
			continue
		}

		drafts = append(drafts, model.ExpenseDraft{
			Amount:      value,
			CategoryID:  category.ID,
			Description: rawCategory,
			Date:        date,
		})
	}

	result.Imported = len(drafts)
	result.Skipped = len(lines) - 1 - len(drafts)
	return drafts, result
}

// ImportReader reads all of r and imports it.
func (i *Importer) ImportReader(r io.Reader, categories []model.Category) ([]model.ExpenseDraft, Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Result{Errors: []string{}}, fmt.Errorf("failed to read CSV: %w", err)
	}
	drafts, result := i.Import(string(data), categories)
	return drafts, result, nil
}

// splitLines returns the non-blank physical lines of text, CRLF or LF.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func field(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}
