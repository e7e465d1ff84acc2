package document

import (
	"context"
	"io/fs"
	"os"
	"sync"
	"time"
)

// MemStore implements Store entirely in memory with synchronous change
// delivery: every write immediately invokes the document's subscribers on
// the calling goroutine. That models the hardest host for echo suppression,
// one whose change notification fires before the write call even returns,
// and makes engine tests deterministic.
type MemStore struct {
	mu        sync.Mutex
	docs      map[string]string
	subs      map[string]map[int]ChangeHandler
	nextSubID int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		docs: make(map[string]string),
		subs: make(map[string]map[int]ChangeHandler),
	}
}

// Ensure MemStore implements Store.
var _ Store = (*MemStore)(nil)

// Put seeds a document without notifying subscribers.
func (s *MemStore) Put(id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = text
}

// ReadAll returns the full document text.
func (s *MemStore) ReadAll(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text, ok := s.docs[id]
	if !ok {
		return "", NewPathError("read", id, &fs.PathError{Op: "read", Path: id, Err: os.ErrNotExist})
	}
	return text, nil
}

// WriteAll replaces the document text and synchronously notifies
// subscribers.
func (s *MemStore) WriteAll(ctx context.Context, id string, text string) error {
	s.mu.Lock()
	s.docs[id] = text
	s.mu.Unlock()

	s.FireChange(id)
	return nil
}

// ReplaceRange replaces the lines [startLine, endLine) and synchronously
// notifies subscribers.
func (s *MemStore) ReplaceRange(ctx context.Context, id string, startLine, endLine int, newLines []string) error {
	s.mu.Lock()
	text, ok := s.docs[id]
	if !ok {
		s.mu.Unlock()
		return NewPathError("replace", id, os.ErrNotExist)
	}
	patched, err := SpliceLines(text, startLine, endLine, newLines)
	if err != nil {
		s.mu.Unlock()
		return NewPathError("replace", id, err)
	}
	s.docs[id] = patched
	s.mu.Unlock()

	s.FireChange(id)
	return nil
}

// Subscribe registers a change handler for the document.
func (s *MemStore) Subscribe(id string, handler ChangeHandler) func() {
	s.mu.Lock()
	s.nextSubID++
	subID := s.nextSubID
	if s.subs[id] == nil {
		s.subs[id] = make(map[int]ChangeHandler)
	}
	s.subs[id][subID] = handler
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if handlers, ok := s.subs[id]; ok {
			delete(handlers, subID)
		}
	}
}

// FireChange synchronously delivers a change notification for the document
// to every subscriber. Tests use it to simulate edits by another actor.
func (s *MemStore) FireChange(id string) {
	s.mu.Lock()
	var handlers []ChangeHandler
	for _, h := range s.subs[id] {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	event := ChangeEvent{ID: id, Time: time.Now()}
	for _, h := range handlers {
		h(event)
	}
}
