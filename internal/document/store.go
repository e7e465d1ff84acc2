package document

import (
	"context"
	"strings"
	"time"
)

// ChangeEvent notifies a subscriber that a document changed outside the
// subscriber's own writes.
type ChangeEvent struct {
	// ID is the document identifier (its path for file-backed stores).
	ID string

	// Time is when the change was observed.
	Time time.Time
}

// ChangeHandler receives external-change notifications.
type ChangeHandler func(ChangeEvent)

// Store is the engine's view of document storage. Implementations must
// serialize writes to one document; subscribers are invoked after the
// written text is observable through ReadAll.
type Store interface {
	// ReadAll returns the full document text.
	ReadAll(ctx context.Context, id string) (string, error)

	// WriteAll replaces the full document text.
	WriteAll(ctx context.Context, id string, text string) error

	// ReplaceRange replaces the lines [startLine, endLine) with newLines,
	// leaving the rest of the document untouched.
	ReplaceRange(ctx context.Context, id string, startLine, endLine int, newLines []string) error

	// Subscribe registers a handler for changes to the document. The
	// returned function removes the subscription.
	Subscribe(id string, handler ChangeHandler) (unsubscribe func())
}

// SpliceLines rebuilds text with lines [startLine, endLine) replaced by
// newLines. This is the shared range-patch primitive for stores whose
// backend can only rewrite whole files.
func SpliceLines(text string, startLine, endLine int, newLines []string) (string, error) {
	lines := strings.Split(text, "\n")
	if startLine < 0 || endLine < startLine || endLine > len(lines) {
		return "", ErrInvalidRange
	}

	out := make([]string, 0, len(lines)-(endLine-startLine)+len(newLines))
	out = append(out, lines[:startLine]...)
	out = append(out, newLines...)
	out = append(out, lines[endLine:]...)
	return strings.Join(out, "\n"), nil
}
