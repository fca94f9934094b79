// Package store persists one array of records per named collection.
package store

import (
	"context"
	"fmt"

	"storefront/internal/models"
)

// Store is the interface that all backing stores implement. Callers always
// read-modify-write the whole array; there are no partial writes.
type Store interface {
	// ReadCollection returns the persisted records of a collection, or an empty
	// slice if it has never been written. Corrupt stored data is reset to an
	// empty array and reported as empty.
	ReadCollection(ctx context.Context, name string) ([]models.Record, error)

	// Exists reports whether the collection's backing location has been
	// created, either by a write or by an earlier read.
	Exists(ctx context.Context, name string) (bool, error)

	// WriteCollection atomically replaces every record of a collection.
	WriteCollection(ctx context.Context, name string, records []models.Record) error

	// Close releases the backend's resources.
	Close() error
}

// StorageError reports an I/O failure of a backend
type StorageError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func readErr(name string, err error) error {
	return &StorageError{Op: "read", Collection: name, Err: err}
}

func writeErr(name string, err error) error {
	return &StorageError{Op: "write", Collection: name, Err: err}
}
