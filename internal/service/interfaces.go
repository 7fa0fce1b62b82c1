// Package service defines the interfaces shared between the application layers.
package service

import "context"

// KeyValueStore is an opaque string store. Get reports absence with false
// rather than an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// SetMany writes every entry atomically.
	SetMany(ctx context.Context, entries map[string]string) error
}

// Checkpointer snapshots persisted state before destructive operations.
type Checkpointer interface {
	AutoCheckpoint(ctx context.Context, operation string) error
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Notifier shows the user a message.
type Notifier interface {
	Notify(message string)
}
