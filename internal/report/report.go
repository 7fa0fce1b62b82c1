// Package report aggregates expenses over a period for display.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/xpense/internal/model"
	"github.com/shopspring/decimal"
)

// Display fallbacks for expenses whose category no longer exists.
const (
	UnknownCategoryName  = "Unknown"
	UnknownCategoryColor = "#cbd5e1"

	DefaultRecent = 5
)

var monthNames = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Period selects either one calendar month or all time.
type Period struct {
	Year    int
	Month   time.Month
	AllTime bool
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Month returns the given calendar month, validating the month number.
func Month(year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("month must be between 1 and 12, got %d", month)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// AllTime returns the unbounded period.
func AllTime() Period {
	return Period{AllTime: true}
}

// Label renders the period as "Mar 2024" or "All time".
func (p Period) Label() string {
	if p.AllTime {
		return "All time"
	}
	return fmt.Sprintf("%s %d", monthNames[p.Month-1], p.Year)
}

// Contains reports whether an expense falls in the period. Expenses with
// unparseable dates only appear under AllTime.
func (p Period) Contains(e model.Expense) bool {
	if p.AllTime {
		return true
	}
	d, err := model.ParseDate(e.Date)
	if err != nil {
		return false
	}
	return d.Year() == p.Year && d.Month() == p.Month
}

// Filter returns the expenses in the period, preserving order.
func Filter(expenses []model.Expense, p Period) []model.Expense {
	out := make([]model.Expense, 0, len(expenses))
	for _, e := range expenses {
		if p.Contains(e) {
			out = append(out, e)
		}
	}
	return out
}

// Slice is one category's share of a period.
type Slice struct {
	Value      decimal.Decimal
	CategoryID string
	Name       string
	Color      string
	Icon       string
	Count      int
}

// Summary is the aggregate view of a period.
type Summary struct {
	Total      decimal.Decimal
	Period     Period
	ByCategory []Slice
	Recent     []model.Expense
	Count      int
}

// Summarize totals the expenses in p. ByCategory is sorted by value
// descending, ties keeping first-seen order. Recent holds the first recent
// expenses in stored order.
func Summarize(expenses []model.Expense, categories []model.Category, p Period, recent int) Summary {
	filtered := Filter(expenses, p)

	summary := Summary{
		Period:     p,
		Total:      decimal.Zero,
		Count:      len(filtered),
		ByCategory: []Slice{},
	}

	index := make(map[string]int)
	for _, e := range filtered {
		amount := decimal.NewFromFloat(e.Amount)
		summary.Total = summary.Total.Add(amount)

		i, ok := index[e.CategoryID]
		if !ok {
			i = len(summary.ByCategory)
			index[e.CategoryID] = i
			summary.ByCategory = append(summary.ByCategory, newSlice(e.CategoryID, categories))
		}
		summary.ByCategory[i].Value = summary.ByCategory[i].Value.Add(amount)
		summary.ByCategory[i].Count++
	}

	sort.SliceStable(summary.ByCategory, func(i, j int) bool {
		return summary.ByCategory[i].Value.GreaterThan(summary.ByCategory[j].Value)
	})

	if recent < 0 {
		recent = 0
	}
	if recent > len(filtered) {
		recent = len(filtered)
	}
	summary.Recent = filtered[:recent]

	return summary
}

func newSlice(categoryID string, categories []model.Category) Slice {
	s := Slice{
		CategoryID: categoryID,
		Name:       UnknownCategoryName,
		Color:      UnknownCategoryColor,
		Value:      decimal.Zero,
	}
	if c, ok := model.FindCategory(categories, categoryID); ok {
		s.Name = c.Name
		s.Icon = c.Icon
		if c.Color != "" {
			s.Color = c.Color
		}
	}
	return s
}

// Share returns the slice's percentage of total, rounded to one place.
func (s Slice) Share(total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return s.Value.Div(total).Mul(decimal.NewFromInt(100)).Round(1)
}
