// Package kv contains the persistent key-value store interface
// Implementations include local files, SQLite, Redis and Cloudflare R2
package kv

import (
	"context"
	"errors"
)

// Common errors returned by implementations.
var (
	ErrNotFound = errors.New("key not found")
	ErrEmptyKey = errors.New("key must not be empty")
)

// Lifecycle defines init/teardown behavior.
type Lifecycle interface {
	Init(ctx context.Context, param any) error
	Close(ctx context.Context) error
}

// Reader exposes read-related operations.
type Reader interface {
	// Get returns the stored value, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Keys returns every stored key starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Writer exposes write-related operations.
type Writer interface {
	// Set creates or overwrites the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
}

// Deleter exposes delete behavior.
type Deleter interface {
	// Delete removes key; it returns ErrNotFound when nothing was stored.
	Delete(ctx context.Context, key string) error
}

// Store aggregates the full contract for key-value backends.
type Store interface {
	Lifecycle
	Reader
	Writer
	Deleter
}

// IgnoreNotFound returns nil for ErrNotFound and err otherwise.
func IgnoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
