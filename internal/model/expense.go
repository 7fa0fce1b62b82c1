package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date form stored on every expense.
const DateLayout = "2006-01-02"

// ErrInvalidExpense indicates an expense failed validation.
var ErrInvalidExpense = errors.New("invalid expense")

// Expense is a single recorded spend. Amount is in the user's (implicit) currency.
type Expense struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	CategoryID  string  `json:"categoryId"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

// ExpenseDraft is an expense that has not been assigned an identity yet.
type ExpenseDraft struct {
	Amount      float64 `json:"amount"`
	CategoryID  string  `json:"categoryId"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

// WithID assigns an identity to the draft.
func (d ExpenseDraft) WithID(id string) Expense {
	return Expense{
		ID:          id,
		Amount:      d.Amount,
		CategoryID:  d.CategoryID,
		Description: d.Description,
		Date:        d.Date,
	}
}

// ValidAmount reports whether a is a finite amount above zero.
func ValidAmount(a float64) bool {
	return a > 0 && !math.IsInf(a, 0) && !math.IsNaN(a)
}

// Validate checks the draft is fit to be committed.
func (d ExpenseDraft) Validate() error {
	if !ValidAmount(d.Amount) {
		return fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidExpense, d.Amount)
	}
	if strings.TrimSpace(d.CategoryID) == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidExpense)
	}
	if _, err := ParseDate(d.Date); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExpense, err)
	}
	return nil
}

// Draft strips the identity from an expense.
func (e Expense) Draft() ExpenseDraft {
	return ExpenseDraft{
		Amount:      e.Amount,
		CategoryID:  e.CategoryID,
		Description: e.Description,
		Date:        e.Date,
	}
}

// Validate checks the expense has an identity and valid contents.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidExpense)
	}
	return e.Draft().Validate()
}

// ParseDate parses a canonical YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not in YYYY-MM-DD form", s)
	}
	return t, nil
}

// FormatDate projects t onto its calendar date in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
