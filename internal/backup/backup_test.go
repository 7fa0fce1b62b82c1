package backup

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/xpense/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleExpenses() []model.Expense {
	return []model.Expense{
		{ID: "b", Amount: 1200.5, CategoryID: "3", Description: "Shoes & socks", Date: "2024-03-02"},
		{ID: "a", Amount: 250, CategoryID: "1", Description: "Food & Dining", Date: "2024-03-01"},
	}
}

func TestExport_Document(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 30, 15, 123456789, time.FixedZone("IST", 5*3600+1800))

	data, err := Export(sampleExpenses(), model.DefaultCategories(), now)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.JSONEq(t, `"1.0"`, string(fields["version"]))
	assert.JSONEq(t, `"2024-03-05T09:00:15.123Z"`, string(fields["exportedAt"]))
	assert.Contains(t, string(data), "\n  \"expenses\": [")
	assert.Contains(t, string(data), "Shoes & socks", "HTML characters are not escaped")
}

func TestExport_NilCollections(t *testing.T) {
	data, err := Export(nil, nil, time.Now())
	require.NoError(t, err)

	doc, err := Decode(data)
	require.NoError(t, err)
	assert.NotNil(t, doc.Expenses)
	assert.NotNil(t, doc.Categories)
	assert.Empty(t, doc.Expenses)
	assert.Empty(t, doc.Categories)
}

func TestRoundTrip(t *testing.T) {
	expenses := sampleExpenses()
	categories := model.DefaultCategories()

	data, err := Export(expenses, categories, time.Now())
	require.NoError(t, err)

	doc, err := Decode(data, WithStrict(true))
	require.NoError(t, err)
	assert.Equal(t, expenses, doc.Expenses)
	assert.Equal(t, categories, doc.Categories)

	original, err := json.Marshal(expenses)
	require.NoError(t, err)
	restored, err := json.Marshal(doc.Expenses)
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantFormat  bool
		wantParse   bool
		wantExpense int
	}{
		{name: "minimal", input: `{"expenses":[],"categories":[]}`},
		{name: "version optional", input: `{"expenses":[{"id":"1","amount":5,"categoryId":"1","description":"","date":"2024-01-01"}],"categories":[]}`, wantExpense: 1},
		{name: "missing categories", input: `{"expenses":[]}`, wantFormat: true},
		{name: "missing expenses", input: `{"categories":[]}`, wantFormat: true},
		{name: "null categories", input: `{"expenses":[],"categories":null}`, wantFormat: true},
		{name: "not an object", input: `[1,2,3]`, wantFormat: true},
		{name: "wrong element shape", input: `{"expenses":"nope","categories":[]}`, wantFormat: true},
		{name: "malformed", input: `{"expenses":`, wantParse: true},
		{name: "empty", input: ``, wantParse: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode([]byte(tt.input))
			switch {
			case tt.wantFormat:
				assert.ErrorIs(t, err, ErrInvalidFormat)
			case tt.wantParse:
				require.Error(t, err)
				assert.NotErrorIs(t, err, ErrInvalidFormat)
			default:
				require.NoError(t, err)
				assert.Len(t, doc.Expenses, tt.wantExpense)
			}
		})
	}
}

func TestDecode_Strict(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "zero amount", input: `{"expenses":[{"id":"1","amount":0,"categoryId":"1","date":"2024-01-01"}],"categories":[]}`},
		{name: "bad date", input: `{"expenses":[{"id":"1","amount":1,"categoryId":"1","date":"yesterday"}],"categories":[]}`},
		{name: "missing id", input: `{"expenses":[{"amount":1,"categoryId":"1","date":"2024-01-01"}],"categories":[]}`},
		{name: "duplicate expense", input: `{"expenses":[{"id":"1","amount":1,"categoryId":"1","date":"2024-01-01"},{"id":"1","amount":2,"categoryId":"1","date":"2024-01-02"}],"categories":[]}`},
		{name: "nameless category", input: `{"expenses":[],"categories":[{"id":"1","name":" "}]}`},
		{name: "duplicate category", input: `{"expenses":[],"categories":[{"id":"1","name":"A"},{"id":"1","name":"B"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			require.NoError(t, err, "lenient mode accepts the document")

			_, err = Decode([]byte(tt.input), WithStrict(true))
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestEncode_WriterError(t *testing.T) {
	err := Encode(failingWriter{}, NewDocument(nil, nil, time.Now()))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to encode backup"))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "xpense_backup_2024-03-05.json", FileName(time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, bytes.ErrTooLarge
}
