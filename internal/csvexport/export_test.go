package csvexport

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Veraticus/xpense/internal/csvimport"
	"github.com/Veraticus/xpense/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	expenses := []model.Expense{
		{ID: "1", Amount: 1200.5, CategoryID: "3", Description: "Shoes, socks", Date: "2024-03-02"},
		{ID: "2", Amount: 250, CategoryID: "gone", Description: "old", Date: "2024-03-01"},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, expenses, model.DefaultCategories()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Category,Amount,Description", lines[0])
	assert.Equal(t, `2024-03-02,Shopping,1200.5,"Shoes, socks"`, lines[1])
	assert.Equal(t, "2024-03-01,Unknown,250,old", lines[2])
}

func TestWrite_ReimportsThroughImporter(t *testing.T) {
	categories := model.DefaultCategories()
	expenses := []model.Expense{
		{ID: "1", Amount: 99.99, CategoryID: "5", Description: "power", Date: "2024-04-01"},
		{ID: "2", Amount: 10, CategoryID: "1", Description: "lunch", Date: "2024-04-02"},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, expenses, categories))

	drafts, result := csvimport.New().Import(buf.String(), categories)
	require.Empty(t, result.Errors)
	require.Equal(t, 2, result.Imported)

	for i, d := range drafts {
		assert.Equal(t, expenses[i].Date, d.Date)
		assert.Equal(t, expenses[i].CategoryID, d.CategoryID)
		assert.InDelta(t, expenses[i].Amount, d.Amount, 1e-9)
	}
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, nil))
	assert.Equal(t, "Date,Category,Amount,Description", strings.TrimSpace(buf.String()))
}
