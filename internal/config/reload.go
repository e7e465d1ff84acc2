package config

import (
	"sync"

	"github.com/a198h/agile-board-sub001/internal/document/vfs"
	"github.com/a198h/agile-board-sub001/internal/document/watcher"
)

// ReloadHandler receives the freshly loaded board collection after the
// boards directory changes on disk.
type ReloadHandler func(Boards)

// Reloader watches the boards directory and re-reads the collection when
// any board file changes, is added, or is removed.
type Reloader struct {
	fsys vfs.VFS
	dir  string
	w    watcher.Watcher

	mu       sync.Mutex
	boards   Boards
	handlers []ReloadHandler
	onError  []func(error)
	closed   bool

	done chan struct{}
}

// NewReloader loads the boards directory and starts watching it. The given
// watcher is owned by the reloader and closed with it.
func NewReloader(fsys vfs.VFS, dir string, w watcher.Watcher) (*Reloader, error) {
	boards, err := LoadBoards(fsys, dir)
	if err != nil {
		return nil, err
	}

	r := &Reloader{
		fsys:   fsys,
		dir:    dir,
		w:      w,
		boards: boards,
		done:   make(chan struct{}),
	}
	if fsys.Exists(dir) {
		if err := w.Watch(dir); err != nil {
			return nil, err
		}
	}
	go r.loop()
	return r, nil
}

// Boards returns the most recently loaded collection.
func (r *Reloader) Boards() Boards {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.boards
}

// OnReload registers a handler invoked after every successful reload.
func (r *Reloader) OnReload(h ReloadHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, h)
}

// OnError registers a handler for reload failures. The previous collection
// stays in effect when a reload fails.
func (r *Reloader) OnError(h func(error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onError = append(r.onError, h)
}

// Close stops watching and releases the underlying watcher.
func (r *Reloader) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	err := r.w.Close()
	<-r.done
	return err
}

func (r *Reloader) loop() {
	defer close(r.done)
	events := r.w.Events()
	errs := r.w.Errors()
	for events != nil || errs != nil {
		select {
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			r.reload()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			r.reportError(err)
		}
	}
}

func (r *Reloader) reload() {
	boards, err := LoadBoards(r.fsys, r.dir)
	if err != nil {
		r.reportError(err)
		return
	}

	r.mu.Lock()
	r.boards = boards
	handlers := make([]ReloadHandler, len(r.handlers))
	copy(handlers, r.handlers)
	r.mu.Unlock()

	for _, h := range handlers {
		h(boards)
	}
}

func (r *Reloader) reportError(err error) {
	r.mu.Lock()
	handlers := make([]func(error), len(r.onError))
	copy(handlers, r.onError)
	r.mu.Unlock()

	for _, h := range handlers {
		h(err)
	}
}
