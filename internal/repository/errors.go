package repository

import (
	"errors"
	"fmt"
)

// Sentinel causes carried inside a StorageError.
var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("duplicate record")
	ErrForeignKey = errors.New("unknown owner reference")
)

// StorageError reports a failed store operation. The wrapped cause is one
// of the sentinels above or a driver error (connectivity loss, bad SQL).
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
