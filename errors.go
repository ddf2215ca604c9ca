package prefixstore

import (
	"context"
	"errors"
)

// TranslateError converts any failure from an ObjectClient into a
// *StorageError labelled with the caller's operation and logical name.
// Adapter-produced StorageErrors keep their classification but are
// re-labelled, so the result is never double-wrapped.
func TranslateError(op, name string, err error) error {
	if err == nil {
		return nil
	}

	var se *StorageError
	if errors.As(err, &se) {
		return &StorageError{Op: op, Key: name, Err: se.Err}
	}

	switch {
	case errors.Is(err, context.Canceled):
		return &StorageError{Op: op, Key: name, Err: errors.Join(ErrAborted, err)}
	case errors.Is(err, context.DeadlineExceeded):
		return &StorageError{Op: op, Key: name, Err: errors.Join(ErrTimeout, err)}
	}

	return &StorageError{Op: op, Key: name, Err: err}
}
