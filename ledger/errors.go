package ledger

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced member, book or sale does not
// exist. It is always wrapped with the entity kind and key, so callers can
// match it with errors.Is.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed or out-of-range input. The caller layer
// pre-filters most of these; the service still rejects them at the boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientStockError is returned when a sale requests more copies than
// the book has on hand. Stock carries the current value for display.
type InsufficientStockError struct {
	BookID    string
	Stock     int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for book %s: %d on hand, %d requested", e.BookID, e.Stock, e.Requested)
}

// StorageError wraps a failure of the underlying database. Any operation
// returning it has rolled back; no partial state is visible.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: storage failure: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
