package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    Columns
	}{
		{
			name:    "canonical",
			headers: []string{"Date", "Category", "Amount"},
			want:    Columns{Date: 0, Category: 1, Amount: 2},
		},
		{
			name:    "amount first",
			headers: []string{"Amount", "Date", "Category"},
			want:    Columns{Date: 1, Category: 2, Amount: 0},
		},
		{
			name:    "category first",
			headers: []string{"Category", "Date", "Amount"},
			want:    Columns{Date: 1, Category: 0, Amount: 2},
		},
		{
			name:    "expense category beats expense amount alias",
			headers: []string{"Date", "Expense Category", "Amount"},
			want:    Columns{Date: 0, Category: 1, Amount: 2},
		},
		{
			name:    "separators collapse",
			headers: []string{"TRANSACTION_DATE", "sub-category", "Debit"},
			want:    Columns{Date: 0, Category: 1, Amount: 2},
		},
		{
			name:    "verbose headers",
			headers: []string{"Posted Transaction Date", "Description", "Amount (USD)"},
			want:    Columns{Date: 0, Category: 1, Amount: 2},
		},
		{
			name:    "abbreviation not covered",
			headers: []string{"Date", "Category", "Amt"},
			want:    Columns{Date: 0, Category: 1, Amount: NotFound},
		},
		{
			name:    "blank headers never match",
			headers: []string{"", "  ", "Date"},
			want:    Columns{Date: 2, Category: NotFound, Amount: NotFound},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectColumns(tt.headers))
		})
	}
}

func TestColumns_Missing(t *testing.T) {
	assert.Empty(t, Columns{Date: 0, Category: 1, Amount: 2}.Missing())
	assert.Equal(t,
		[]Role{RoleDate, RoleAmount},
		Columns{Date: NotFound, Category: 0, Amount: NotFound}.Missing(),
	)
}

func TestFindColumn_SharedIndex(t *testing.T) {
	// "Expense" satisfies both roles; nothing reconciles the collision.
	headers := []string{"Date", "Expense"}
	assert.Equal(t, 1, FindColumn(headers, CategoryAliases))
	assert.Equal(t, 1, FindColumn(headers, AmountAliases))
}

func TestFindColumn_AliasPriorityBeatsPosition(t *testing.T) {
	// "description" is an earlier header but a lower priority alias than "category".
	headers := []string{"Description", "Category", "Amount"}
	assert.Equal(t, 1, FindColumn(headers, CategoryAliases))

	// "expense category" contains the amount alias "expense"; "amount" ranks first.
	headers = []string{"Date", "Expense Category", "Amount"}
	assert.Equal(t, 2, FindColumn(headers, AmountAliases))
}

func TestFindColumn_BlankHeaderMatchesNothing(t *testing.T) {
	assert.Equal(t, NotFound, FindColumn([]string{"", " \t "}, DateAliases))
	assert.Equal(t, 1, FindColumn([]string{"", "Amount"}, AmountAliases))
}
