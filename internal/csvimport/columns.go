package csvimport

import (
	"regexp"
	"strings"
)

// NotFound is the column index reported for an undetected role.
const NotFound = -1

// Role names a semantic column.
type Role string

const (
	RoleDate     Role = "date"
	RoleCategory Role = "category"
	RoleAmount   Role = "amount"
)

// Header aliases per role in priority order.
var (
	DateAliases = []string{
		"date", "dates", "transaction date", "transaction_date", "trans date", "trans_date",
	}
	CategoryAliases = []string{
		"category", "categories", "expense category", "expense_category", "expensecategory",
		"type", "description", "expense type",
	}
	AmountAliases = []string{
		"amount", "amounts", "value", "values", "price", "cost", "expense", "expenses", "debit",
	}
)

var separatorRuns = regexp.MustCompile(`[\s_-]+`)

func normalizeHeader(s string) string {
	return separatorRuns.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

// FindColumn returns the index of the header matching the highest priority
// alias, or NotFound. A header matches an alias when either contains the
// other after normalization. Headers that normalize to empty never match,
// although plain containment would let an empty header match every alias.
func FindColumn(headers []string, aliases []string) int {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	// Aliases are the outer loop, so alias priority beats header position.
	for _, alias := range aliases {
		alias = normalizeHeader(alias)
		for i, h := range normalized {
			if h == "" {
				continue
			}
			if strings.Contains(h, alias) || strings.Contains(alias, h) {
				return i
			}
		}
	}
	return NotFound
}

// Columns holds the detected index of each role. Two roles may share an index.
type Columns struct {
	Date     int
	Category int
	Amount   int
}

// DetectColumns maps a header row to column roles.
func DetectColumns(headers []string) Columns {
	return Columns{
		Date:     FindColumn(headers, DateAliases),
		Category: FindColumn(headers, CategoryAliases),
		Amount:   FindColumn(headers, AmountAliases),
	}
}

// Missing lists the roles that were not detected, in date, category, amount order.
func (c Columns) Missing() []Role {
	var missing []Role
	if c.Date == NotFound {
		missing = append(missing, RoleDate)
	}
	if c.Category == NotFound {
		missing = append(missing, RoleCategory)
	}
	if c.Amount == NotFound {
		missing = append(missing, RoleAmount)
	}
	return missing
}
