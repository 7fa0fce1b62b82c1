// Package backup encodes and decodes the full-state JSON backup document.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Veraticus/xpense/internal/model"
)

// FormatVersion is written into every exported document.
const FormatVersion = "1.0"

// TimestampLayout renders exportedAt as UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// ErrInvalidFormat indicates a document lacks a required collection or has the wrong shape.
var ErrInvalidFormat = errors.New("invalid backup format")

// Document is the backup file layout.
type Document struct {
	Version    string           `json:"version"`
	ExportedAt string           `json:"exportedAt"`
	Expenses   []model.Expense  `json:"expenses"`
	Categories []model.Category `json:"categories"`
}

// NewDocument snapshots the collections at now. Nil collections encode as empty arrays.
func NewDocument(expenses []model.Expense, categories []model.Category, now time.Time) Document {
	doc := Document{
		Expenses:   make([]model.Expense, len(expenses)),
		Categories: make([]model.Category, len(categories)),
		Version:    FormatVersion,
		ExportedAt: now.UTC().Format(TimestampLayout),
	}
	copy(doc.Expenses, expenses)
	copy(doc.Categories, categories)
	return doc
}

// Encode writes doc as two-space indented JSON.
func Encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// Export renders the collections as backup text.
func Export(expenses []model.Expense, categories []model.Category, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, NewDocument(expenses, categories, now)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName is the suggested file name for a backup taken at now.
func FileName(now time.Time) string {
	return fmt.Sprintf("xpense_backup_%s.json", model.FormatDate(now))
}

type decodeOptions struct {
	strict bool
}

// DecodeOption configures Decode.
type DecodeOption func(*decodeOptions)

// WithStrict additionally validates every expense and category and rejects
// duplicate IDs.
func WithStrict(strict bool) DecodeOption {
	return func(o *decodeOptions) {
		o.strict = strict
	}
}

// Decode parses backup text. Malformed JSON returns the parse error; a
// document without expenses or categories returns ErrInvalidFormat.
func Decode(data []byte, opts ...DecodeOption) (Document, error) {
	var o decodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("failed to parse backup: %w", err)
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return Document{}, fmt.Errorf("%w: document is not an object", ErrInvalidFormat)
	}
	for _, key := range []string{"expenses", "categories"} {
		if v, present := fields[key]; !present || v == nil {
			return Document{}, fmt.Errorf("%w: missing %q", ErrInvalidFormat, key)
		}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if o.strict {
		if err := validate(doc); err != nil {
			return Document{}, err
		}
	}
	return doc, nil
}

func validate(doc Document) error {
	categoryIDs := make(map[string]struct{}, len(doc.Categories))
	for i, c := range doc.Categories {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%w: category %d: %v", ErrInvalidFormat, i, err)
		}
		if _, dup := categoryIDs[c.ID]; dup {
			return fmt.Errorf("%w: duplicate category id %q", ErrInvalidFormat, c.ID)
		}
		categoryIDs[c.ID] = struct{}{}
	}

	expenseIDs := make(map[string]struct{}, len(doc.Expenses))
	for i, e := range doc.Expenses {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("%w: expense %d: %v", ErrInvalidFormat, i, err)
		}
		if _, dup := expenseIDs[e.ID]; dup {
			return fmt.Errorf("%w: duplicate expense id %q", ErrInvalidFormat, e.ID)
		}
		expenseIDs[e.ID] = struct{}{}
	}
	return nil
}
