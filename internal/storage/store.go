package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// KeyValue is the string store a JSONStore persists through.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// JSONStore keeps one JSON-encoded value of type T under a fixed key.
type JSONStore[T any] struct {
	kv  KeyValue
	key string
}

// NewJSONStore creates a store for key.
func NewJSONStore[T any](kv KeyValue, key string) *JSONStore[T] {
	return &JSONStore[T]{kv: kv, key: key}
}

// Key returns the storage key.
func (s *JSONStore[T]) Key() string {
	return s.key
}

// Load returns the stored value. The bool is false when nothing has been saved yet.
func (s *JSONStore[T]) Load(ctx context.Context) (T, bool, error) {
	var zero T

	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil || !found {
		return zero, false, err
	}

	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return zero, false, fmt.Errorf("%w: %s: %v", ErrCorruptValue, s.key, err)
	}
	return value, true, nil
}

// Save replaces the stored value.
func (s *JSONStore[T]) Save(ctx context.Context, value T) error {
	encoded, err := s.Encode(value)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key, encoded)
}

// Encode renders value the way Save stores it, for callers batching several keys.
func (s *JSONStore[T]) Encode(value T) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", s.key, err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
