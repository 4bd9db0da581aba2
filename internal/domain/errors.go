package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every layer - use with errors.Is()
var (
	ErrOutOfRange    = errors.New("offset out of range")
	ErrNotFound      = errors.New("not found")
	ErrCorruptFormat = errors.New("corrupt stored format")
	ErrValidation    = errors.New("validation failed")
	ErrStore         = errors.New("store failure")
)

// StoreError wraps a driver-level failure from the note store.
// It is never retried; Op names the store call for logging.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is() to match against ErrStore
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// NewStoreError returns nil when err is nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
