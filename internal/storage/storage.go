// Package storage provides keyed document collections shared by the signal
// store, the feedback book and the analytics recorder.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no document has the requested id.
	ErrNotFound = errors.New("storage: not found")
	// ErrExists is returned when inserting an id that is already present.
	ErrExists = errors.New("storage: already exists")
)

// Collection is an ordered set of documents of one type keyed by id.
// Iteration follows insertion order; Put on an existing id keeps its place.
type Collection[T any] interface {
	// Get returns the document stored under id.
	Get(ctx context.Context, id string) (T, error)
	// Find returns every document match accepts. A nil match returns all.
	Find(ctx context.Context, match func(T) bool) ([]T, error)
	// Insert adds a new document; ErrExists when id is taken.
	Insert(ctx context.Context, id string, doc T) error
	// Put inserts or replaces the document under id.
	Put(ctx context.Context, id string, doc T) error
	// Patch applies fn to the stored document and saves the result.
	Patch(ctx context.Context, id string, fn func(*T) error) (T, error)
	// Delete removes the document under id.
	Delete(ctx context.Context, id string) error
	// DeleteWhere removes every document match accepts and returns the count.
	DeleteWhere(ctx context.Context, match func(T) bool) (int, error)
	// Count returns the number of documents.
	Count(ctx context.Context) (int, error)
}

// Driver names for the data.driver setting.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)
