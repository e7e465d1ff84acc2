package document

import (
	"errors"
	"fmt"
)

// Errors returned by store operations.
var (
	// ErrInvalidRange indicates a line range outside the document.
	ErrInvalidRange = errors.New("invalid line range")

	// ErrNotSubscribed indicates an unsubscribe for an unknown subscription.
	ErrNotSubscribed = errors.New("not subscribed")

	// ErrStoreClosed indicates an operation on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrRangePatchUnsupported is returned by stores that cannot replace a
	// line range in place; callers fall back to a whole-document write.
	ErrRangePatchUnsupported = errors.New("range patch unsupported")
)

// PathError wraps an error with the operation and document it occurred on.
type PathError struct {
	Op   string
	Path string
	Err  error
}

// NewPathError creates a PathError.
func NewPathError(op, path string, err error) *PathError {
	return &PathError{Op: op, Path: path, Err: err}
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PathError) Unwrap() error {
	return e.Err
}
