package engine

import (
	"fmt"
	"strings"
)

// SectionMissingError reports titles referenced by a frame or board that do
// not exist in the current document. It is a reported, recoverable
// condition: other sections keep rendering and editing.
type SectionMissingError struct {
	Titles []string
}

// Error implements the error interface.
func (e *SectionMissingError) Error() string {
	return fmt.Sprintf("missing sections: %s", strings.Join(e.Titles, ", "))
}

// ConflictError reports a local write that was aborted because its target
// section vanished between the debounce window and the commit.
type ConflictError struct {
	Title string
	Err   error
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("edit to section %q aborted", e.Title)
	}
	return fmt.Sprintf("edit to section %q aborted: %v", e.Title, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConflictError) Unwrap() error {
	return e.Err
}
