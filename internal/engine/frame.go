package engine

import "github.com/google/uuid"

// Frame is a live view bound to one section. The engine pushes content to
// it through Refresh and skips pushes while Editing reports true, so
// in-flight typing is never clobbered.
type Frame interface {
	// Title returns the section title the frame is bound to.
	Title() string

	// Refresh replaces the frame's displayed content.
	Refresh(content string)

	// Editing reports whether the frame currently holds unsaved local
	// edits or input focus.
	Editing() bool
}

// frameBinding is the engine's per-frame state: the frame itself, the last
// content pushed to or committed from it, and whether a refresh was skipped
// while the frame was being edited.
type frameBinding struct {
	id          uuid.UUID
	frame       Frame
	lastContent string
	deferred    bool
}
