package layout

import (
	"fmt"
	"strings"
)

// ValidationError aggregates every problem found in one model. It is built
// from a Result so callers that want an error value instead of a report get
// the complete list, not just the first offender.
type ValidationError struct {
	Model    string
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("layout model %q invalid: %s", e.Model, strings.Join(e.Problems, "; "))
}

// Err converts a Result into an error, or nil when the result is valid.
func (r Result) Err(model string) error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Model: model, Problems: r.Errors}
}
