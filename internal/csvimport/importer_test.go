package csvimport

import (
	"errors"
	"strings"
	"testing"

	"github.com/Veraticus/xpense/internal/model"
	"github.com/Veraticus/xpense/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImporter_Import(t *testing.T) {
	categories := model.DefaultCategories()

	tests := []struct {
		name       string
		input      string
		wantErrors []string
		imported   int
		skipped    int
	}{
		{
			name:     "zero amount skipped",
			input:    "Date,Category,Amount\n2024-01-01,Food,0",
			imported: 0,
			skipped:  1,
		},
		{
			name:     "amount underflowing to zero skipped",
			input:    "Date,Category,Amount\n2024-01-01,Food,1e-400",
			imported: 0,
			skipped:  1,
		},
		{
			name:     "amount overflowing to infinity skipped",
			input:    "Date,Category,Amount\n2024-01-02,Food,1e400",
			imported: 0,
			skipped:  1,
		},
		{
			name:     "exponent amount in range kept",
			input:    "Date,Category,Amount\n2024-01-02,Food,1.5e2",
			imported: 1,
			skipped:  0,
		},
		{
			name:     "unparseable date skipped",
			input:    "Date,Category,Amount\n not-a-date,Food,100",
			imported: 0,
			skipped:  1,
		},
		{
			name:     "non-numeric amount skipped",
			input:    "Date,Category,Amount\n2024-01-01,Food,abc",
			imported: 0,
			skipped:  1,
		},
		{
			name:     "short row treated as empty fields",
			input:    "Date,Category,Amount\n2024-01-01,Food",
			imported: 0,
			skipped:  1,
		},
		{
			name:     "blank lines are discarded",
			input:    "\n\nDate,Category,Amount\n\n2024-01-01,Food,10\n   \n2024-01-02,Transport,20\n\n",
			imported: 2,
			skipped:  0,
		},
		{
			name:     "crlf line endings",
			input:    "Date,Category,Amount\r\n2024-01-01,Food,10\r\n2024-01-02,Bills,20\r\n",
			imported: 2,
			skipped:  0,
		},
		{
			name:       "header only",
			input:      "Date,Category,Amount\n",
			wantErrors: []string{ErrMsgTooFewLines},
		},
		{
			name:       "empty input",
			input:      "",
			wantErrors: []string{ErrMsgTooFewLines},
		},
		{
			name:       "missing amount column",
			input:      "Date,Category,Amt\n2024-01-01,Food,10",
			wantErrors: []string{ErrMsgMissingAmount},
		},
		{
			name:       "no columns detected",
			input:      "foo,bar,baz\n1,2,3\n4,5,6",
			wantErrors: []string{ErrMsgMissingDate, ErrMsgMissingCategory, ErrMsgMissingAmount},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drafts, result := New().Import(tt.input, categories)

			if tt.wantErrors != nil {
				assert.Equal(t, tt.wantErrors, result.Errors)
				assert.True(t, result.HasErrors())
				assert.Empty(t, drafts)
				assert.Zero(t, result.Imported)
				assert.Zero(t, result.Skipped)
				return
			}

			assert.NotNil(t, result.Errors)
			assert.Empty(t, result.Errors)
			assert.Equal(t, tt.imported, result.Imported)
			assert.Equal(t, tt.skipped, result.Skipped)
			assert.Len(t, drafts, tt.imported)
		})
	}
}

func TestImporter_EndToEnd(t *testing.T) {
	input := strings.Join([]string{
		"Date,Expense Category,Amount",
		"2024-03-01,Food & Dining,250",
		"2024-03-02,Unknown Category,99",
		"2024-03-03,Transport,-5",
	}, "\n")

	drafts, result := New().Import(input, model.DefaultCategories())

	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	assert.Empty(t, result.Errors)
	require.Len(t, drafts, 1)
	assert.Equal(t, model.ExpenseDraft{
		Amount:      250,
		CategoryID:  "1",
		Description: "Food & Dining",
		Date:        "2024-03-01",
	}, drafts[0])
}

func TestImporter_RowNormalization(t *testing.T) {
	input := strings.Join([]string{
		`Amount,Transaction Date,Type`,
		`"₹1,200.50",03/15/2024,shopping`,
		`$ 50,2024-03-16T22:10:00+05:30,  Bills & Utilities `,
	}, "\n")

	drafts, result := New().Import(input, model.DefaultCategories())

	require.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Skipped)

	assert.InDelta(t, 1200.50, drafts[0].Amount, 1e-9)
	assert.Equal(t, "2024-03-15", drafts[0].Date)
	assert.Equal(t, "3", drafts[0].CategoryID)
	assert.Equal(t, "shopping", drafts[0].Description)

	assert.InDelta(t, 50.0, drafts[1].Amount, 1e-9)
	assert.Equal(t, "2024-03-16", drafts[1].Date)
	assert.Equal(t, "5", drafts[1].CategoryID)
	assert.Equal(t, "Bills & Utilities", drafts[1].Description)

	for _, d := range drafts {
		assert.NoError(t, d.Validate())
	}
}

func TestImporter_CountsAddUp(t *testing.T) {
	input := "Date,Category,Amount\n" +
		"2024-01-01,Food,10\n" +
		"bad,Food,10\n" +
		"2024-01-03,Nope,10\n" +
		"2024-01-04,Others,-1\n" +
		"2024-01-05,Entertainment,15.75\n"

	drafts, result := New().Import(input, model.DefaultCategories())

	assert.Equal(t, 5, result.Imported+result.Skipped)
	assert.Equal(t, 2, result.Imported)
	assert.Len(t, drafts, 2)
}

func TestImporter_Options(t *testing.T) {
	t.Run("day first date formats", func(t *testing.T) {
		importer := New(WithDateFormats([]string{"02/01/2006"}))
		drafts, result := importer.Import("Date,Category,Amount\n03/01/2024,Food,10", model.DefaultCategories())
		require.Equal(t, 1, result.Imported)
		assert.Equal(t, "2024-01-03", drafts[0].Date)
	})

	t.Run("fuzzy categories", func(t *testing.T) {
		input := "Date,Category,Amount\n2024-01-01,trnsprt,10"

		_, result := New().Import(input, model.DefaultCategories())
		assert.Equal(t, 0, result.Imported)

		importer := New(WithMatcherOptions(normalize.WithFuzzyFallback(true)))
		drafts, result := importer.Import(input, model.DefaultCategories())
		require.Equal(t, 1, result.Imported)
		assert.Equal(t, "2", drafts[0].CategoryID)
	})
}

func TestImporter_DoesNotMutateCategories(t *testing.T) {
	categories := model.DefaultCategories()
	before := model.DefaultCategories()

	New().Import("Date,Category,Amount\n2024-01-01,Food,10", categories)

	assert.Equal(t, before, categories)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestImporter_ImportReader(t *testing.T) {
	drafts, result, err := New().ImportReader(
		strings.NewReader("Date,Category,Amount\n2024-01-01,Food,10"),
		model.DefaultCategories(),
	)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Len(t, drafts, 1)

	_, _, err = New().ImportReader(failingReader{}, model.DefaultCategories())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestResult_Summary(t *testing.T) {
	assert.Equal(t, "Imported 3 expenses, skipped 1 rows", Result{Imported: 3, Skipped: 1}.Summary())
	assert.Equal(t, "a\nb", Result{Errors: []string{"a", "b"}}.Summary())
}
