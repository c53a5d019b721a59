package database

import (
	"context"
	"errors"
	"fmt"
)

// ErrStorageUnavailable marks transient infrastructure failures. The whole
// operation can be retried because no partial write is ever committed.
var ErrStorageUnavailable = errors.New("storage unavailable")

// StorageError wraps a driver failure so callers can match it with
// errors.Is(err, ErrStorageUnavailable) and still reach the driver error.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrStorageUnavailable, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorageUnavailable, e.Err}
}

// Unavailable wraps err as a StorageError. Context cancellation is passed
// through untouched so callers see their own deadline.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &StorageError{Op: op, Err: err}
}

// Transactor runs fn inside one all-or-nothing unit. The transaction is
// carried by the ctx handed to fn; repositories pick it up from there.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
