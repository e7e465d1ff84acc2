// Package watcher delivers external file-change notifications to the
// document store and the board configuration loader.
//
// Raw notifications come from fsnotify; Debounced coalesces the rapid bursts
// editors produce on save (write + chmod + rename) into one event per path.
package watcher

import (
	"errors"
	"time"
)

// Common errors returned by watcher operations.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrAlreadyWatching = errors.New("path is already being watched")
	ErrNotWatching     = errors.New("path is not being watched")
	ErrPathNotExist    = errors.New("path does not exist")
)

// Op represents the type of file system operation.
type Op uint32

const (
	// OpCreate indicates a file was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates a file was written to.
	OpWrite
	// OpRemove indicates a file was removed.
	OpRemove
	// OpRename indicates a file was renamed.
	OpRename
)

// String returns a human-readable representation of the operation set.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	default:
		return "MULTIPLE"
	}
}

// Has reports whether the operation set contains o.
func (op Op) Has(o Op) bool {
	return op&o != 0
}

// Event is a file change notification.
type Event struct {
	// Path is the absolute path of the changed file.
	Path string

	// Op is the operation, possibly a combination after coalescing.
	Op Op

	// Timestamp is when the (last) underlying event occurred.
	Timestamp time.Time
}

// Watcher delivers file change events.
type Watcher interface {
	// Watch starts watching a file or directory.
	Watch(path string) error

	// Unwatch stops watching a path.
	Unwatch(path string) error

	// Events returns the event channel. It is closed by Close.
	Events() <-chan Event

	// Errors returns the error channel. It is closed by Close.
	Errors() <-chan error

	// IsWatching reports whether the path is being watched.
	IsWatching(path string) bool

	// Close stops the watcher and releases resources.
	Close() error
}
