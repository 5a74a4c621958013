package core

import (
	"errors"
	"fmt"
)

// Error kinds. Callers branch on these with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrStorage    = errors.New("storage failure")
	ErrIO         = errors.New("snapshot i/o failure")
	ErrNotFound   = errors.New("not found")
)

var (
	ErrInvalidDate      = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidAmount    = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrEmptyDescription = fmt.Errorf("%w: empty description", ErrValidation)
	ErrEmptyCategory    = fmt.Errorf("%w: empty category", ErrValidation)
	ErrEmptyPerson      = fmt.Errorf("%w: empty person", ErrValidation)
	ErrInvalidType      = fmt.Errorf("%w: invalid transaction type", ErrValidation)
	ErrInvalidFrequency = fmt.Errorf("%w: invalid frequency", ErrValidation)
	ErrEndBeforeStart   = fmt.Errorf("%w: end date must not be before start date", ErrValidation)
)

// StorageError reports a failed ledger store operation. Writes that already
// succeeded within the same logical operation are not rolled back.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// NewStorageError wraps err as a StorageError unless it is nil or already one.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &StorageError{Op: op, Err: err}
}

// IOError reports an unreadable, unwritable or malformed snapshot file.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("snapshot: %v", e.Err)
	}
	return fmt.Sprintf("snapshot %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }
