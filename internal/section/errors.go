package section

import (
	"fmt"
	"strings"
)

// Title rejection reasons.
const (
	ReasonEmpty   = "empty"
	ReasonNewline = "contains newline"
	ReasonHash    = "contains '#'"
)

// TitleError reports a title that cannot form a valid level-1 heading.
// The segmentation scan itself never fails; only the generation helpers
// reject input, and they do so with this type rather than panicking.
type TitleError struct {
	Title  string
	Reason string
}

// Error implements the error interface.
func (e *TitleError) Error() string {
	return fmt.Sprintf("invalid section title %q: %s", e.Title, e.Reason)
}

// checkTitle validates a title for use in a generated heading. It is
// stricter than the delimiter scan: headingTitle accepts "# #foo" (title
// "#foo"), but generation rejects any '#' so a generated heading never
// reads as a deeper or nested heading. Parsed '#'-bearing titles are
// therefore readable but not re-generatable.
func checkTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return &TitleError{Title: title, Reason: ReasonEmpty}
	}
	for _, r := range title {
		switch r {
		case '\n', '\r':
			return &TitleError{Title: title, Reason: ReasonNewline}
		case '#':
			return &TitleError{Title: title, Reason: ReasonHash}
		}
	}
	return nil
}
