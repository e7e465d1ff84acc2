package document

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/a198h/agile-board-sub001/internal/document/vfs"
	"github.com/a198h/agile-board-sub001/internal/document/watcher"
)

// stubWatcher implements watcher.Watcher with test-driven event injection.
type stubWatcher struct {
	mu      sync.Mutex
	events  chan watcher.Event
	errs    chan error
	watched map[string]bool
	closed  bool
}

func newStubWatcher() *stubWatcher {
	return &stubWatcher{
		events:  make(chan watcher.Event, 10),
		errs:    make(chan error, 10),
		watched: make(map[string]bool),
	}
}

func (w *stubWatcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[path] {
		return watcher.ErrAlreadyWatching
	}
	w.watched[path] = true
	return nil
}

func (w *stubWatcher) Unwatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.watched[path] {
		return watcher.ErrNotWatching
	}
	delete(w.watched, path)
	return nil
}

func (w *stubWatcher) Events() <-chan watcher.Event { return w.events }
func (w *stubWatcher) Errors() <-chan error         { return w.errs }

func (w *stubWatcher) IsWatching(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watched[path]
}

func (w *stubWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.events)
		close(w.errs)
	}
	return nil
}

func (w *stubWatcher) emit(path string) {
	w.events <- watcher.Event{Path: path, Op: watcher.OpWrite, Timestamp: time.Now()}
}

func newTestFileStore(t *testing.T) (*FileStore, *vfs.MemFS, *stubWatcher) {
	t.Helper()
	fsys := vfs.NewMemFS()
	w := newStubWatcher()
	s := NewFileStore(fsys, w)
	t.Cleanup(func() { _ = s.Close() })
	return s, fsys, w
}

func TestFileStoreReadWrite(t *testing.T) {
	s, _, _ := newTestFileStore(t)
	ctx := context.Background()

	if err := s.WriteAll(ctx, "/doc.md", "# A\nfoo\n"); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	text, err := s.ReadAll(ctx, "/doc.md")
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if text != "# A\nfoo\n" {
		t.Errorf("text = %q", text)
	}
}

func TestFileStoreReadMissing(t *testing.T) {
	s, _, _ := newTestFileStore(t)
	if _, err := s.ReadAll(context.Background(), "/missing.md"); err == nil {
		t.Error("reading a missing document should fail")
	}
}

func TestFileStoreReplaceRange(t *testing.T) {
	s, _, _ := newTestFileStore(t)
	ctx := context.Background()

	if err := s.WriteAll(ctx, "/doc.md", "# A\nfoo\n# B\nbar\n"); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	if err := s.ReplaceRange(ctx, "/doc.md", 1, 2, []string{"foo2"}); err != nil {
		t.Fatalf("ReplaceRange failed: %v", err)
	}

	text, _ := s.ReadAll(ctx, "/doc.md")
	if text != "# A\nfoo2\n# B\nbar\n" {
		t.Errorf("text = %q", text)
	}
}

func TestFileStoreSubscribeStartsWatching(t *testing.T) {
	s, _, w := newTestFileStore(t)

	unsub := s.Subscribe("/doc.md", func(ChangeEvent) {})
	if !w.IsWatching("/doc.md") {
		t.Error("first subscription should start watching the path")
	}

	unsub()
	if w.IsWatching("/doc.md") {
		t.Error("last unsubscribe should stop watching the path")
	}
}

func TestFileStoreSharedWatch(t *testing.T) {
	s, _, w := newTestFileStore(t)

	unsub1 := s.Subscribe("/doc.md", func(ChangeEvent) {})
	unsub2 := s.Subscribe("/doc.md", func(ChangeEvent) {})

	unsub1()
	if !w.IsWatching("/doc.md") {
		t.Error("path should stay watched while a subscriber remains")
	}
	unsub2()
	if w.IsWatching("/doc.md") {
		t.Error("path should be unwatched after the last unsubscribe")
	}
}

func TestFileStoreDispatchesEvents(t *testing.T) {
	s, _, w := newTestFileStore(t)

	got := make(chan ChangeEvent, 1)
	s.Subscribe("/doc.md", func(e ChangeEvent) { got <- e })

	w.emit("/doc.md")

	select {
	case e := <-got:
		if e.ID != "/doc.md" {
			t.Errorf("event ID = %q", e.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("change event not dispatched")
	}
}

func TestFileStoreIgnoresUnsubscribedPaths(t *testing.T) {
	s, _, w := newTestFileStore(t)

	got := make(chan ChangeEvent, 1)
	s.Subscribe("/doc.md", func(e ChangeEvent) { got <- e })

	w.emit("/other.md")

	select {
	case e := <-got:
		t.Errorf("unexpected event for %q", e.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFileStoreUnsubscribeStopsDelivery(t *testing.T) {
	s, _, w := newTestFileStore(t)

	got := make(chan ChangeEvent, 1)
	unsub := s.Subscribe("/doc.md", func(e ChangeEvent) { got <- e })
	unsub()

	// Re-watch so the emit has a live path; no subscriber remains though.
	_ = w.Watch("/doc.md")
	w.emit("/doc.md")

	select {
	case <-got:
		t.Error("unsubscribed handler should not receive events")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFileStoreForwardsWatcherErrors(t *testing.T) {
	s, _, w := newTestFileStore(t)

	got := make(chan error, 1)
	s.OnError(func(err error) { got <- err })

	w.errs <- watcher.ErrPathNotExist

	select {
	case err := <-got:
		if err != watcher.ErrPathNotExist {
			t.Errorf("err = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher error not forwarded")
	}
}

func TestFileStoreCloseIsIdempotent(t *testing.T) {
	s, _, _ := newTestFileStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}
