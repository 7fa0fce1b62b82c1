// Package storage provides the data persistence layer for xpense.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// maxKeyLength bounds store keys. Keys name whole collections, so anything
// longer is a caller bug.
const maxKeyLength = 128

// Validation errors.
var (
	ErrNilContext            = errors.New("context cannot be nil")
	ErrInvalidKey            = errors.New("invalid store key")
	ErrEmptyPath             = errors.New("database path cannot be empty")
	ErrCorruptValue          = errors.New("stored value is corrupt")
	ErrCheckpointUnsupported = errors.New("checkpoints require a file-backed database")
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateKey rejects blank keys, overlong keys and keys containing spaces
// or control characters.
func validateKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	case len(key) > maxKeyLength:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidKey, maxKeyLength)
	case strings.ContainsFunc(key, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }):
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidKey, key)
	}
	return nil
}

func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrEmptyPath
	}
	return nil
}
