// Package ledger owns the persisted expense and category collections and
// applies every mutation to them, including CSV imports and backup restores.
//
// Each mutation is persisted before the in-memory state changes, so a failed
// write leaves both untouched.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/xpense/internal/backup"
	"github.com/Veraticus/xpense/internal/common"
	"github.com/Veraticus/xpense/internal/csvimport"
	"github.com/Veraticus/xpense/internal/model"
	"github.com/Veraticus/xpense/internal/service"
	"github.com/Veraticus/xpense/internal/storage"
	"github.com/google/uuid"
)

// Storage keys for the two collections.
const (
	ExpensesKey   = "xpense_data_v1"
	CategoriesKey = "xpense_categories_v1"
)

// Ledger errors.
var (
	ErrExpenseNotFound  = errors.New("expense not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInUse    = errors.New("category has expenses")
)

// Ledger holds the expense and category collections.
type Ledger struct {
	kv            service.KeyValueStore
	checkpointer  service.Checkpointer
	now           func() time.Time
	newID         func() string
	expenseStore  *storage.JSONStore[[]model.Expense]
	categoryStore *storage.JSONStore[[]model.Category]
	importer      *csvimport.Importer
	expenses      []model.Expense
	categories    []model.Category
	decodeOpts    []backup.DecodeOption
	mu            sync.RWMutex
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithIDGenerator replaces the random UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) {
		l.newID = fn
	}
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(l *Ledger) {
		l.now = fn
	}
}

// WithCheckpointer snapshots storage before restores and clears.
func WithCheckpointer(cp service.Checkpointer) Option {
	return func(l *Ledger) {
		l.checkpointer = cp
	}
}

// WithImporter sets the CSV importer.
func WithImporter(importer *csvimport.Importer) Option {
	return func(l *Ledger) {
		l.importer = importer
	}
}

// WithDecodeOptions sets the options used to decode backups.
func WithDecodeOptions(opts ...backup.DecodeOption) Option {
	return func(l *Ledger) {
		l.decodeOpts = opts
	}
}

// Open loads both collections from kv. Absent categories are seeded with the
// defaults; absent expenses start empty.
func Open(ctx context.Context, kv service.KeyValueStore, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		kv:            kv,
		now:           time.Now,
		newID:         uuid.NewString,
		expenseStore:  storage.NewJSONStore[[]model.Expense](kv, ExpensesKey),
		categoryStore: storage.NewJSONStore[[]model.Category](kv, CategoriesKey),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.importer == nil {
		l.importer = csvimport.New()
	}

	expenses, found, err := l.expenseStore.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	if !found || expenses == nil {
		expenses = []model.Expense{}
	}

	categories, found, err := l.categoryStore.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	if !found {
		categories = model.DefaultCategories()
		if err := l.categoryStore.Save(ctx, categories); err != nil {
			return nil, fmt.Errorf("failed to seed categories: %w", err)
		}
		slog.Debug("Seeded default categories", "count", len(categories))
	}
	if categories == nil {
		categories = []model.Category{}
	}

	l.expenses = expenses
	l.categories = categories
	return l, nil
}

// Expenses returns a copy of the expenses, newest additions first.
func (l *Ledger) Expenses() []model.Expense {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]model.Expense(nil), l.expenses...)
}

// Categories returns a copy of the categories in display order.
func (l *Ledger) Categories() []model.Category {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]model.Category(nil), l.categories...)
}

// Category looks up a category by ID.
func (l *Ledger) Category(id string) (model.Category, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return model.FindCategory(l.categories, id)
}

// AddExpense validates and prepends a new expense.
func (l *Ledger) AddExpense(ctx context.Context, draft model.ExpenseDraft) (model.Expense, error) {
	if err := draft.Validate(); err != nil {
		return model.Expense{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := model.FindCategory(l.categories, draft.CategoryID); !ok {
		return model.Expense{}, fmt.Errorf("%w: %s", ErrCategoryNotFound, draft.CategoryID)
	}

	expense := draft.WithID(l.newID())
	next := make([]model.Expense, 0, len(l.expenses)+1)
	next = append(next, expense)
	next = append(next, l.expenses...)

	if err := l.saveExpenses(ctx, next); err != nil {
		return model.Expense{}, err
	}
	return expense, nil
}

// UpdateExpense replaces the contents of an existing expense, keeping its ID and position.
func (l *Ledger) UpdateExpense(ctx context.Context, id string, draft model.ExpenseDraft) (model.Expense, error) {
	if err := draft.Validate(); err != nil {
		return model.Expense{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := model.FindCategory(l.categories, draft.CategoryID); !ok {
		return model.Expense{}, fmt.Errorf("%w: %s", ErrCategoryNotFound, draft.CategoryID)
	}

	idx := l.expenseIndex(id)
	if idx < 0 {
		return model.Expense{}, fmt.Errorf("%w: %s", ErrExpenseNotFound, id)
	}

	updated := draft.WithID(id)
	next := append([]model.Expense(nil), l.expenses...)
	next[idx] = updated

	if err := l.saveExpenses(ctx, next); err != nil {
		return model.Expense{}, err
	}
	return updated, nil
}

// DeleteExpense removes an expense.
func (l *Ledger) DeleteExpense(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.expenseIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrExpenseNotFound, id)
	}

	next := make([]model.Expense, 0, len(l.expenses)-1)
	next = append(next, l.expenses[:idx]...)
	next = append(next, l.expenses[idx+1:]...)
	return l.saveExpenses(ctx, next)
}

// ClearExpenses removes every expense and returns how many were removed.
// Categories are kept.
func (l *Ledger) ClearExpenses(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkpoint(ctx, "clear"); err != nil {
		return 0, err
	}

	removed := len(l.expenses)
	if err := l.saveExpenses(ctx, []model.Expense{}); err != nil {
		return 0, err
	}
	return removed, nil
}

// AddCategory appends a category. Blank color and icon fall back to defaults.
func (l *Ledger) AddCategory(ctx context.Context, name, color, icon string) (model.Category, error) {
	category := model.Category{
		Name:  strings.TrimSpace(name),
		Color: strings.TrimSpace(color),
		Icon:  strings.TrimSpace(icon),
	}
	if category.Color == "" {
		category.Color = model.DefaultCategoryColor
	}
	if category.Icon == "" {
		category.Icon = model.DefaultCategoryIcon
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	category.ID = l.newID()
	if err := category.Validate(); err != nil {
		return model.Category{}, err
	}

	next := make([]model.Category, 0, len(l.categories)+1)
	next = append(next, l.categories...)
	next = append(next, category)

	if err := l.saveCategories(ctx, next); err != nil {
		return model.Category{}, err
	}
	return category, nil
}

// UpdateCategory applies a partial update to a category.
func (l *Ledger) UpdateCategory(ctx context.Context, id string, update model.CategoryUpdate) (model.Category, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i, c := range l.categories {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Category{}, fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}

	updated := l.categories[idx].Apply(update)
	if err := updated.Validate(); err != nil {
		return model.Category{}, err
	}

	next := append([]model.Category(nil), l.categories...)
	next[idx] = updated

	if err := l.saveCategories(ctx, next); err != nil {
		return model.Category{}, err
	}
	return updated, nil
}

// DeleteCategory removes a category that no expense references.
func (l *Ledger) DeleteCategory(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i, c := range l.categories {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}

	for _, e := range l.expenses {
		if e.CategoryID == id {
			return common.NewUserError(MsgCategoryInUse, ErrCategoryInUse)
		}
	}

	next := make([]model.Category, 0, len(l.categories)-1)
	next = append(next, l.categories[:idx]...)
	next = append(next, l.categories[idx+1:]...)
	return l.saveCategories(ctx, next)
}

// CommitDrafts assigns identities to drafts and prepends them in their given
// order. Nothing is committed if any draft is invalid.
func (l *Ledger) CommitDrafts(ctx context.Context, drafts []model.ExpenseDraft) ([]model.Expense, error) {
	if len(drafts) == 0 {
		return []model.Expense{}, nil
	}
	for i, d := range drafts {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("draft %d: %w", i+1, err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	committed := make([]model.Expense, len(drafts))
	for i, d := range drafts {
		committed[i] = d.WithID(l.newID())
	}

	next := make([]model.Expense, 0, len(committed)+len(l.expenses))
	next = append(next, committed...)
	next = append(next, l.expenses...)

	if err := l.saveExpenses(ctx, next); err != nil {
		return nil, err
	}
	return committed, nil
}

// ImportCSV parses text against the current categories and commits the
// resulting drafts. Structural problems are reported in the result, not as
// an error.
func (l *Ledger) ImportCSV(ctx context.Context, text string) ([]model.Expense, csvimport.Result, error) {
	drafts, result := l.importer.Import(text, l.Categories())
	if len(drafts) == 0 {
		return []model.Expense{}, result, nil
	}

	committed, err := l.CommitDrafts(ctx, drafts)
	if err != nil {
		return nil, result, err
	}

	slog.Info("Imported CSV expenses", "imported", result.Imported, "skipped", result.Skipped)
	return committed, result, nil
}

// ImportCSVReader reads r fully and imports it. Read failures surface as a
// UserError carrying MsgCSVReadFailed.
func (l *Ledger) ImportCSVReader(ctx context.Context, r io.Reader) ([]model.Expense, csvimport.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, csvimport.Result{Errors: []string{}}, common.NewUserError(MsgCSVReadFailed, err)
	}
	return l.ImportCSV(ctx, string(data))
}

// ExportBackup writes the current state as a backup document.
func (l *Ledger) ExportBackup(w io.Writer) error {
	l.mu.RLock()
	doc := backup.NewDocument(l.expenses, l.categories, l.now())
	l.mu.RUnlock()

	return backup.Encode(w, doc)
}

// BackupFileName is the suggested name for a backup taken now.
func (l *Ledger) BackupFileName() string {
	return backup.FileName(l.now())
}

// RestoreBackup replaces both collections with the contents of a backup after
// confirm agrees. It reports whether anything changed; a declined confirmation
// is not an error. Decode failures are returned as a UserError carrying
// MsgRestoreFailed.
func (l *Ledger) RestoreBackup(ctx context.Context, data []byte, confirm service.Confirmer) (bool, error) {
	doc, err := backup.Decode(data, l.decodeOpts...)
	if err != nil {
		slog.Warn("Rejected backup", "error", err)
		return false, common.NewUserError(MsgRestoreFailed, err)
	}

	ok, err := confirm.Confirm(ctx, MsgRestorePrompt)
	if err != nil {
		return false, err
	}
	if !ok {
		slog.Debug("Backup restore declined")
		return false, nil
	}

	expenses := doc.Expenses
	if expenses == nil {
		expenses = []model.Expense{}
	}
	categories := doc.Categories
	if categories == nil {
		categories = []model.Category{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkpoint(ctx, "restore"); err != nil {
		return false, err
	}

	encodedExpenses, err := l.expenseStore.Encode(expenses)
	if err != nil {
		return false, err
	}
	encodedCategories, err := l.categoryStore.Encode(categories)
	if err != nil {
		return false, err
	}

	if err := l.kv.SetMany(ctx, map[string]string{
		ExpensesKey:   encodedExpenses,
		CategoriesKey: encodedCategories,
	}); err != nil {
		return false, fmt.Errorf("failed to save restored data: %w", err)
	}

	l.expenses = expenses
	l.categories = categories
	slog.Info("Restored backup",
		"expenses", len(expenses),
		"categories", len(categories),
		"version", doc.Version,
		"exported_at", doc.ExportedAt)
	return true, nil
}

func (l *Ledger) expenseIndex(id string) int {
	for i, e := range l.expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) saveExpenses(ctx context.Context, next []model.Expense) error {
	if err := l.expenseStore.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save expenses: %w", err)
	}
	l.expenses = next
	return nil
}

func (l *Ledger) saveCategories(ctx context.Context, next []model.Category) error {
	if err := l.categoryStore.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save categories: %w", err)
	}
	l.categories = next
	return nil
}

func (l *Ledger) checkpoint(ctx context.Context, operation string) error {
	if l.checkpointer == nil {
		return nil
	}
	if err := l.checkpointer.AutoCheckpoint(ctx, operation); err != nil {
		return fmt.Errorf("failed to checkpoint before %s: %w", operation, err)
	}
	return nil
}
