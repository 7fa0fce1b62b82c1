package normalize

import "errors"

// Normalization failures.
var (
	ErrEmptyValue    = errors.New("empty value")
	ErrInvalidDate   = errors.New("unrecognized date")
	ErrInvalidAmount = errors.New("invalid amount")
)
