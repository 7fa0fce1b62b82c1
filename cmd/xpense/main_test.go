package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/xpense/internal/backup"
	"github.com/Veraticus/xpense/internal/common"
	"github.com/Veraticus/xpense/internal/ledger"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv is an isolated home directory and database for running commands.
type testEnv struct {
	t      *testing.T
	dir    string
	dbPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Cleanup(viper.Reset)
	return &testEnv{t: t, dir: dir, dbPath: filepath.Join(dir, "xpense.db")}
}

// run executes one command line with stdin as input and returns its stdout.
func (e *testEnv) run(stdin string, args ...string) (string, error) {
	e.t.Helper()
	viper.Reset()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--db", e.dbPath, "--log-level", "error"}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run("", args...)
	require.NoError(e.t, err, out)
	return out
}

func (e *testEnv) writeFile(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func (e *testEnv) readBackup(path string) backup.Document {
	e.t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(e.t, err)
	doc, err := backup.Decode(data)
	require.NoError(e.t, err)
	return doc
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	assert.Contains(t, env.mustRun("version"), "xpense dev")
}

func TestInvalidLogLevel(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("", "--log-level", "loud", "version")
	assert.Error(t, err)
}

func TestCategoryLifecycle(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("category", "list")
	for _, name := range []string{"Food & Dining", "Transport", "Shopping", "Entertainment", "Bills & Utilities", "Others"} {
		assert.Contains(t, out, name)
	}

	out = env.mustRun("category", "add", "Pets", "--color", "#f97316", "--icon", "🐶")
	assert.Contains(t, out, "Added category")
	assert.Contains(t, out, "Pets")

	env.mustRun("category", "update", "2", "--name", "Travel")
	out = env.mustRun("category", "list")
	assert.Contains(t, out, "Travel")
	assert.NotContains(t, out, "Transport")

	_, err := env.run("", "category", "update", "2")
	assert.Error(t, err, "an update without fields fails")

	env.mustRun("expense", "add", "--amount", "9.99", "--category", "Travel", "--date", "2024-03-02")
	_, err = env.run("", "category", "delete", "2")
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrCategoryInUse)
	assert.Equal(t, ledger.MsgCategoryInUse, common.UserMessage(err))

	env.mustRun("category", "delete", "4")
	assert.NotContains(t, env.mustRun("category", "list"), "Entertainment")
}

func TestExpenseLifecycle(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("expense", "add",
		"--amount", "$1,200.50",
		"--category", "food",
		"--date", "2024-03-01",
		"--description", "Dinner party")
	assert.Contains(t, out, "Added 1200.50")

	_, err := env.run("", "expense", "add", "--amount", "-5", "--category", "Food & Dining")
	assert.Error(t, err, "negative amounts are rejected")

	_, err = env.run("", "expense", "add", "--amount", "5", "--category", "Groceries")
	assert.ErrorIs(t, err, ledger.ErrCategoryNotFound)

	out = env.mustRun("expense", "list", "--month", "2024-03")
	assert.Contains(t, out, "Dinner party")
	assert.Contains(t, out, "1200.50")

	assert.Contains(t, env.mustRun("expense", "list", "--month", "2024-04"), "No expenses for Apr 2024.")

	doc := exportBackup(t, env)
	require.Len(t, doc.Expenses, 1)
	id := doc.Expenses[0].ID

	env.mustRun("expense", "update", id, "--amount", "1000")
	doc = exportBackup(t, env)
	assert.Equal(t, 1000.0, doc.Expenses[0].Amount)
	assert.Equal(t, "Dinner party", doc.Expenses[0].Description, "unchanged fields are kept")

	_, err = env.run("", "expense", "update", "missing", "--amount", "1")
	assert.ErrorIs(t, err, ledger.ErrExpenseNotFound)

	env.mustRun("expense", "delete", id)
	assert.Empty(t, exportBackup(t, env).Expenses)
}

func TestClearExpenses(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("expense", "add", "--amount", "10", "--category", "1", "--date", "2024-03-01")
	env.mustRun("expense", "add", "--amount", "20", "--category", "2", "--date", "2024-03-02")

	out, err := env.run("n\n", "expense", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, ledger.MsgClearPrompt)
	assert.Contains(t, out, "Clear cancelled.")
	assert.Len(t, exportBackup(t, env).Expenses, 2)

	out, err = env.run("y\n", "expense", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 2 expenses")

	doc := exportBackup(t, env)
	assert.Empty(t, doc.Expenses)
	assert.Len(t, doc.Categories, 6, "categories are kept")

	out = env.mustRun("checkpoint", "list")
	assert.Contains(t, out, "auto-clear-")
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("expense", "add", "--amount", "30", "--category", "1", "--date", "2024-03-01", "--description", "Groceries")
	env.mustRun("expense", "add", "--amount", "10", "--category", "2", "--date", "2024-03-05", "--description", "Bus")
	env.mustRun("expense", "add", "--amount", "99", "--category", "2", "--date", "2024-02-05")

	out := env.mustRun("summary", "--month", "2024-03")
	assert.Contains(t, out, "Mar 2024")
	assert.Contains(t, out, "Total: 40.00 across 2 expenses")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "Bus")

	out = env.mustRun("summary", "--all")
	assert.Contains(t, out, "All time")
	assert.Contains(t, out, "Total: 139.00 across 3 expenses")

	_, err := env.run("", "summary", "--month", "March")
	assert.Error(t, err)
}

func TestImportCSV(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeFile("expenses.csv", strings.Join([]string{
		"Date,Expense Category,Amount",
		"2024-03-01,Food & Dining,250",
		"2024-03-02,Unknown Category,99",
		"2024-03-03,Transport,-5",
	}, "\n"))

	out := env.mustRun("import", "csv", path)
	assert.Contains(t, out, "Imported 1 expenses from CSV. 2 rows skipped (unmatched category or invalid data).")

	doc := exportBackup(t, env)
	require.Len(t, doc.Expenses, 1)
	assert.Equal(t, "1", doc.Expenses[0].CategoryID)
	assert.Equal(t, 250.0, doc.Expenses[0].Amount)
	assert.Equal(t, "2024-03-01", doc.Expenses[0].Date)
	assert.Equal(t, "Food & Dining", doc.Expenses[0].Description)
}

func TestImportCSV_ColumnErrors(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeFile("bad.csv", "When,What,HowMuch\n2024-03-01,Food,10\n")

	out := env.mustRun("import", "csv", path)
	assert.Contains(t, out, "CSV Import Issues:")
	assert.Contains(t, out, "Could not detect Date column. Use headers like: Date, Transaction Date")
	assert.Empty(t, exportBackup(t, env).Expenses)
}

func TestImportCSV_MultipleFiles(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile("a.csv", "Date,Category,Amount\n2024-03-01,Transport,12\n")
	env.writeFile("b.csv", "Date,Category,Amount\n2024-03-02,Shopping,40\n2024-03-03,Shopping,0\n")

	out := env.mustRun("import", "csv", filepath.Join(env.dir, "*.csv"))
	assert.Contains(t, out, "a.csv: Imported 1 expenses from CSV. 0 rows skipped")
	assert.Contains(t, out, "b.csv: Imported 1 expenses from CSV. 1 rows skipped")

	assert.Len(t, exportBackup(t, env).Expenses, 2)
}

func TestImportCSV_NoFiles(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("", "import", "csv", filepath.Join(env.dir, "nothing-*.csv"))
	assert.Error(t, err)
}

func TestExportCSVRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("expense", "add", "--amount", "12.5", "--category", "Transport", "--date", "2024-03-01", "--description", "Taxi")
	env.mustRun("expense", "add", "--amount", "7", "--category", "Shopping", "--date", "2024-04-01")

	out := env.mustRun("export", "csv")
	assert.Contains(t, out, "Date,Category,Amount,Description")
	assert.Contains(t, out, "2024-03-01,Transport,12.5,Taxi")

	out = env.mustRun("export", "csv", "--month", "2024-04")
	assert.NotContains(t, out, "Taxi")
	assert.Contains(t, out, "2024-04-01,Shopping,7,")

	path := filepath.Join(env.dir, "out", "export.csv")
	env.mustRun("export", "csv", "--output", path)

	other := newTestEnv(t)
	assert.Contains(t, other.mustRun("import", "csv", path), "Imported 2 expenses from CSV. 0 rows skipped")
}

func TestBackupRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("category", "add", "Pets")
	env.mustRun("expense", "add", "--amount", "45", "--category", "Pets", "--date", "2024-03-01", "--description", "Vet")
	env.mustRun("expense", "add", "--amount", "12", "--category", "1", "--date", "2024-03-02")

	path := filepath.Join(env.dir, "backup.json")
	out := env.mustRun("backup", "export", "--output", path)
	assert.Contains(t, out, "Exported 2 expenses and 7 categories")
	original := env.readBackup(path)
	assert.Equal(t, backup.FormatVersion, original.Version)

	other := newTestEnv(t)
	other.mustRun("expense", "add", "--amount", "1", "--category", "2")

	out, err := other.run("n\n", "backup", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, ledger.MsgRestorePrompt)
	assert.Contains(t, out, "Restore cancelled.")
	assert.Len(t, exportBackup(t, other).Expenses, 1)

	out, err = other.run("", "backup", "import", path, "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, ledger.MsgRestoreSuccess)

	restored := exportBackup(t, other)
	assert.Equal(t, original.Expenses, restored.Expenses)
	assert.Equal(t, original.Categories, restored.Categories)

	assert.Contains(t, other.mustRun("checkpoint", "list"), "auto-restore-")
}

func TestBackupImport_Invalid(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("expense", "add", "--amount", "5", "--category", "1")

	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed", content: "{not json"},
		{name: "missing categories", content: `{"expenses": [], "version": "1.0"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := env.writeFile(tt.name+".json", tt.content)
			_, err := env.run("", "backup", "import", path, "--yes")
			require.Error(t, err)
			assert.Equal(t, ledger.MsgRestoreFailed, common.UserMessage(err))
		})
	}

	_, err := env.run("", "backup", "import", filepath.Join(env.dir, "missing.json"), "--yes")
	assert.Equal(t, ledger.MsgRestoreFailed, common.UserMessage(err))

	assert.Len(t, exportBackup(t, env).Expenses, 1)
}

func TestBackupExport_Stdout(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun("backup", "export", "--output", "-")

	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &raw))
	assert.Contains(t, raw, "expenses")
	assert.Contains(t, raw, "categories")
	assert.Equal(t, "1.0", raw["version"])
}

func TestCheckpointCommands(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("expense", "add", "--amount", "5", "--category", "1", "--date", "2024-03-01")

	out := env.mustRun("checkpoint", "create", "--tag", "before", "--description", "first")
	assert.Contains(t, out, "Created checkpoint before")

	env.mustRun("expense", "add", "--amount", "6", "--category", "1", "--date", "2024-03-02")
	assert.Len(t, exportBackup(t, env).Expenses, 2)

	out = env.mustRun("checkpoint", "list")
	assert.Contains(t, out, "before")
	assert.Contains(t, out, "manual")

	out, err := env.run("y\n", "checkpoint", "restore", "before")
	require.NoError(t, err)
	assert.Contains(t, out, "Restored from checkpoint before")
	assert.Len(t, exportBackup(t, env).Expenses, 1)

	out, err = env.run("", "checkpoint", "delete", "before", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted checkpoint before")
	assert.Contains(t, env.mustRun("checkpoint", "list"), "No checkpoints found.")
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		expected string
		size     int64
	}{
		{size: 512, expected: "512 B"},
		{size: 2048, expected: "2.0 KB"},
		{size: 5 * 1024 * 1024, expected: "5.0 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFileSize(tt.size))
		})
	}
}

// exportBackup dumps the current state through the backup command.
func exportBackup(t *testing.T, env *testEnv) backup.Document {
	t.Helper()
	out := env.mustRun("backup", "export", "--output", "-")
	doc, err := backup.Decode([]byte(out))
	require.NoError(t, err)
	return doc
}
