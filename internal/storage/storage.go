// Package storage defines the key-value contract the identity registry and
// license ledger persist through, plus an in-memory implementation.
// Redis and SQL implementations live in the redisstore and sqlstore
// subpackages.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a key has no record.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned by Update when a concurrent writer kept winning
	// and the update could not be applied.
	ErrConflict = errors.New("record changed concurrently")
)

// UpdateFunc receives the current value of a key and returns its replacement.
// Returning an error aborts the update and leaves the record untouched.
type UpdateFunc func(current []byte) ([]byte, error)

// Store is the persistence contract shared by all backends.
type Store interface {
	// Get returns the record stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any existing record.
	Put(ctx context.Context, key string, value []byte) error

	// PutIfAbsent stores value only if key has no record. It reports whether
	// the value was stored. Concurrent calls for the same key see at most one
	// success.
	PutIfAbsent(ctx context.Context, key string, value []byte) (bool, error)

	// Update atomically replaces the record under key with fn(current). It
	// returns ErrNotFound if key has no record.
	Update(ctx context.Context, key string, fn UpdateFunc) error

	// Close releases backend resources.
	Close() error
}
