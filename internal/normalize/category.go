package normalize

import (
	"fmt"
	"strings"

	"github.com/Veraticus/xpense/internal/model"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// MatchMode controls the tie-break when a candidate is an exact match for one
// category and a substring match for an earlier one.
type MatchMode string

const (
	// MatchExactFirst scans the whole set for an exact name before trying containment.
	MatchExactFirst MatchMode = "exact-first"
	// MatchInOrder checks exact, then containment, per category in set order.
	// The first category satisfying any check wins.
	MatchInOrder MatchMode = "in-order"
)

// ParseMatchMode validates a configured match mode. Empty means MatchExactFirst.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchExactFirst:
		return MatchExactFirst, nil
	case MatchInOrder:
		return MatchInOrder, nil
	default:
		return "", fmt.Errorf("unknown category match mode %q (want %q or %q)", s, MatchExactFirst, MatchInOrder)
	}
}

// CategoryMatcher resolves free text to one of a fixed set of categories.
// The set is captured at construction so identities stay stable for one import.
type CategoryMatcher struct {
	categories []model.Category
	names      []string
	mode       MatchMode
	fuzzy      bool
}

// MatcherOption configures a CategoryMatcher.
type MatcherOption func(*CategoryMatcher)

// WithMatchMode sets the tie-break mode.
func WithMatchMode(mode MatchMode) MatcherOption {
	return func(m *CategoryMatcher) {
		m.mode = mode
	}
}

// WithFuzzyFallback enables a subsequence match when no exact or substring
// match exists, e.g. "trnsprt" resolves to "Transport".
func WithFuzzyFallback(enabled bool) MatcherOption {
	return func(m *CategoryMatcher) {
		m.fuzzy = enabled
	}
}

// NewCategoryMatcher creates a matcher over categories in their given order.
func NewCategoryMatcher(categories []model.Category, opts ...MatcherOption) *CategoryMatcher {
	m := &CategoryMatcher{
		categories: make([]model.Category, len(categories)),
		names:      make([]string, len(categories)),
		mode:       MatchExactFirst,
	}
	copy(m.categories, categories)
	for i, c := range categories {
		m.names[i] = strings.ToLower(c.Name)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match returns the category for raw. Matching is case-insensitive: a category
// matches when its name equals the candidate, contains it, or is contained by it.
func (m *CategoryMatcher) Match(raw string) (model.Category, bool) {
	candidate := strings.ToLower(strings.TrimSpace(raw))
	if candidate == "" {
		return model.Category{}, false
	}

	idx := -1
	switch m.mode {
	case MatchInOrder:
		idx = m.matchInOrder(candidate)
	default:
		idx = m.matchExactFirst(candidate)
	}

	if idx < 0 && m.fuzzy {
		idx = m.matchFuzzy(candidate)
	}
	if idx < 0 {
		return model.Category{}, false
	}
	return m.categories[idx], true
}

func (m *CategoryMatcher) matchExactFirst(candidate string) int {
	for i, name := range m.names {
		if name == candidate {
			return i
		}
	}
	for i, name := range m.names {
		if contains(name, candidate) {
			return i
		}
	}
	return -1
}

func (m *CategoryMatcher) matchInOrder(candidate string) int {
	for i, name := range m.names {
		if name == candidate || contains(name, candidate) {
			return i
		}
	}
	return -1
}

// matchFuzzy picks the category with the lowest edit rank in either direction.
func (m *CategoryMatcher) matchFuzzy(candidate string) int {
	best, bestRank := -1, 0
	for i, name := range m.names {
		if name == "" {
			continue
		}
		rank := fuzzy.RankMatchFold(candidate, name)
		if rank < 0 {
			rank = fuzzy.RankMatchFold(name, candidate)
		}
		if rank < 0 {
			continue
		}
		if best < 0 || rank < bestRank {
			best, bestRank = i, rank
		}
	}
	return best
}

// contains reports two-way substring containment. An empty name matches nothing.
func contains(name, candidate string) bool {
	if name == "" {
		return false
	}
	return strings.Contains(name, candidate) || strings.Contains(candidate, name)
}
