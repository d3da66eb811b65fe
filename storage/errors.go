package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable matches every StorageUnavailableError via errors.Is.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrEmptyItemID rejects rows that cannot be correlated.
	ErrEmptyItemID = errors.New("empty item id")
)

// StorageUnavailableError means the store could not be opened or a call
// could not be committed. It aborts the whole append/query call.
type StorageUnavailableError struct {
	Op  string
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("store: %s: %v: %v", e.Op, ErrStorageUnavailable, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error { return e.Err }

func (e *StorageUnavailableError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// RowError is a single failed insert inside an otherwise healthy append.
type RowError struct {
	Table  string
	ItemID string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("store: insert into %s (item %q): %v", e.Table, e.ItemID, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

func unavailable(op string, err error) error {
	return &StorageUnavailableError{Op: op, Err: err}
}

// storageErr reports err as unavailable storage unless the caller's context
// ended, in which case the context error is returned as is.
func storageErr(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return unavailable(op, err)
}
