package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCategory indicates a category failed validation.
var ErrInvalidCategory = errors.New("invalid category")

// Fallback display hints for categories created without explicit values.
const (
	DefaultCategoryColor = "#64748b"
	DefaultCategoryIcon  = "📦"
)

// Category represents a spending category. Name doubles as the match key for CSV import.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// CategoryUpdate replaces any subset of a category's mutable fields.
// Nil fields are left unchanged.
type CategoryUpdate struct {
	Name  *string
	Color *string
	Icon  *string
}

// IsEmpty reports whether the update changes nothing.
func (u CategoryUpdate) IsEmpty() bool {
	return u.Name == nil && u.Color == nil && u.Icon == nil
}

// Apply returns a copy of c with the update applied. The ID never changes.
func (c Category) Apply(u CategoryUpdate) Category {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Color != nil {
		c.Color = *u.Color
	}
	if u.Icon != nil {
		c.Icon = *u.Icon
	}
	return c
}

// Validate checks the category has an identity and a usable name.
func (c Category) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidCategory)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCategory)
	}
	return nil
}

// FindCategory returns the category with the given ID.
func FindCategory(categories []Category, id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// DefaultCategories returns the categories seeded on first run.
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Food & Dining", Color: "#f87171", Icon: "🍔"},
		{ID: "2", Name: "Transport", Color: "#60a5fa", Icon: "🚗"},
		{ID: "3", Name: "Shopping", Color: "#c084fc", Icon: "🛍️"},
		{ID: "4", Name: "Entertainment", Color: "#facc15", Icon: "🎬"},
		{ID: "5", Name: "Bills & Utilities", Color: "#4ade80", Icon: "💡"},
		{ID: "6", Name: "Others", Color: "#94a3b8", Icon: "📦"},
	}
}
