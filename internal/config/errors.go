package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration loading.
var (
	// ErrBoardNotFound indicates a board referenced by name has no file.
	ErrBoardNotFound = errors.New("board not found")

	// ErrMalformedBoard indicates a board file that is not valid JSON or
	// whose blocks have missing or mistyped fields.
	ErrMalformedBoard = errors.New("malformed board file")
)

// BoardError wraps an error with the board it occurred on.
type BoardError struct {
	Board string
	Err   error
}

// Error implements the error interface.
func (e *BoardError) Error() string {
	return fmt.Sprintf("board %q: %v", e.Board, e.Err)
}

// Unwrap returns the underlying error.
func (e *BoardError) Unwrap() error {
	return e.Err
}
