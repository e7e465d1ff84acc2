package document

import (
	"context"
	"sync"
	"time"

	"github.com/a198h/agile-board-sub001/internal/document/vfs"
	"github.com/a198h/agile-board-sub001/internal/document/watcher"
)

// FileStore implements Store over a VFS with watcher-driven change
// notification. Document IDs are file paths; they are normalized to
// absolute form so watcher events and subscriptions agree.
type FileStore struct {
	mu sync.RWMutex

	fs vfs.VFS
	w  watcher.Watcher

	subs      map[string]map[int]ChangeHandler
	nextSubID int
	watchRefs map[string]int

	onError []func(error)

	closed   bool
	closedWg sync.WaitGroup
}

// NewFileStore creates a FileStore over the given VFS and watcher. The
// watcher is owned by the store and closed with it.
func NewFileStore(fsys vfs.VFS, w watcher.Watcher) *FileStore {
	s := &FileStore{
		fs:        fsys,
		w:         w,
		subs:      make(map[string]map[int]ChangeHandler),
		watchRefs: make(map[string]int),
	}

	s.closedWg.Add(1)
	go s.dispatchLoop()

	return s
}

// NewOSFileStore creates a FileStore over the real file system with a
// debounced fsnotify watcher.
func NewOSFileStore(debounce time.Duration) (*FileStore, error) {
	fw, err := watcher.NewFSNotifyWatcher()
	if err != nil {
		return nil, err
	}
	return NewFileStore(vfs.NewOSFS(), watcher.NewDebounced(fw, debounce)), nil
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)

// ReadAll returns the full document text.
func (s *FileStore) ReadAll(ctx context.Context, id string) (string, error) {
	path, err := s.fs.Abs(id)
	if err != nil {
		return "", NewPathError("read", id, err)
	}
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return "", NewPathError("read", id, err)
	}
	return string(data), nil
}

// WriteAll replaces the full document text.
func (s *FileStore) WriteAll(ctx context.Context, id string, text string) error {
	path, err := s.fs.Abs(id)
	if err != nil {
		return NewPathError("write", id, err)
	}
	if err := s.fs.WriteFile(path, []byte(text), 0644); err != nil {
		return NewPathError("write", id, err)
	}
	return nil
}

// ReplaceRange replaces the lines [startLine, endLine) with newLines. The
// VFS has no partial-write primitive, so the patch is a read, splice, and
// whole-file write; the Store contract still gives the engine a targeted
// range replace.
func (s *FileStore) ReplaceRange(ctx context.Context, id string, startLine, endLine int, newLines []string) error {
	text, err := s.ReadAll(ctx, id)
	if err != nil {
		return err
	}
	patched, err := SpliceLines(text, startLine, endLine, newLines)
	if err != nil {
		return NewPathError("replace", id, err)
	}
	return s.WriteAll(ctx, id, patched)
}

// Subscribe registers a handler for external changes to the document. The
// first subscription for a path starts watching it; the last unsubscribe
// stops.
func (s *FileStore) Subscribe(id string, handler ChangeHandler) func() {
	path, err := s.fs.Abs(id)
	if err != nil {
		path = id
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}
	}
	s.nextSubID++
	subID := s.nextSubID
	if s.subs[path] == nil {
		s.subs[path] = make(map[int]ChangeHandler)
	}
	s.subs[path][subID] = handler
	s.watchRefs[path]++
	first := s.watchRefs[path] == 1
	s.mu.Unlock()

	if first {
		if err := s.w.Watch(path); err != nil && err != watcher.ErrAlreadyWatching {
			s.reportError(NewPathError("watch", id, err))
		}
	}

	return func() {
		s.mu.Lock()
		handlers, ok := s.subs[path]
		if !ok {
			s.mu.Unlock()
			return
		}
		if _, ok := handlers[subID]; !ok {
			s.mu.Unlock()
			return
		}
		delete(handlers, subID)
		s.watchRefs[path]--
		last := s.watchRefs[path] == 0
		if last {
			delete(s.subs, path)
			delete(s.watchRefs, path)
		}
		closed := s.closed
		s.mu.Unlock()

		if last && !closed {
			_ = s.w.Unwatch(path)
		}
	}
}

// OnError registers a handler for asynchronous watcher errors.
func (s *FileStore) OnError(handler func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = append(s.onError, handler)
}

// Close stops the watcher and the dispatch loop. Subscriptions become
// inert; pending notifications are dropped.
func (s *FileStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.w.Close()
	s.closedWg.Wait()
	return err
}

// dispatchLoop fans watcher events out to document subscribers.
func (s *FileStore) dispatchLoop() {
	defer s.closedWg.Done()

	events := s.w.Events()
	errs := s.w.Errors()
	for events != nil || errs != nil {
		select {
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.dispatch(event)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.reportError(err)
		}
	}
}

func (s *FileStore) dispatch(event watcher.Event) {
	s.mu.RLock()
	var handlers []ChangeHandler
	for _, h := range s.subs[event.Path] {
		handlers = append(handlers, h)
	}
	s.mu.RUnlock()

	for _, h := range handlers {
		h(ChangeEvent{ID: event.Path, Time: event.Timestamp})
	}
}

func (s *FileStore) reportError(err error) {
	s.mu.RLock()
	handlers := make([]func(error), len(s.onError))
	copy(handlers, s.onError)
	s.mu.RUnlock()

	for _, h := range handlers {
		h(err)
	}
}
