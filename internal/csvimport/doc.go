// Package csvimport turns loosely structured CSV exports from banks and card
// statements into validated expense drafts.
//
// Columns are discovered by header content rather than position, and rows that
// fail to normalize are counted as skipped instead of failing the import.
// Only structural problems (too few lines, undetectable columns) produce error
// messages.
package csvimport
