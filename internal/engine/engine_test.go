package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/a198h/agile-board-sub001/internal/document"
	"github.com/a198h/agile-board-sub001/internal/section"
)

// testFrame records refreshes and lets tests toggle editing mode.
type testFrame struct {
	mu        sync.Mutex
	title     string
	editing   bool
	refreshes []string
}

func newTestFrame(title string) *testFrame {
	return &testFrame{title: title}
}

func (f *testFrame) Title() string { return f.title }

func (f *testFrame) Refresh(content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes = append(f.refreshes, content)
}

func (f *testFrame) Editing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.editing
}

func (f *testFrame) setEditing(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editing = on
}

func (f *testFrame) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.refreshes)
}

func (f *testFrame) lastRefresh() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.refreshes) == 0 {
		return ""
	}
	return f.refreshes[len(f.refreshes)-1]
}

// newTestEngine builds an engine over a MemStore with an hour-long debounce
// (commits only via FlushEdits) and zero cooldown unless overridden.
func newTestEngine(t *testing.T, text string, opts ...Option) (*Engine, *document.MemStore) {
	t.Helper()
	store := document.NewMemStore()
	store.Put("doc", text)
	all := append([]Option{WithDebounce(time.Hour), WithCooldown(0)}, opts...)
	e := New(store, "doc", all...)
	t.Cleanup(e.Close)
	return e, store
}

func docText(t *testing.T, store *document.MemStore) string {
	t.Helper()
	text, err := store.ReadAll(context.Background(), "doc")
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	return text
}

func TestAttachPushesCurrentContent(t *testing.T) {
	e, _ := newTestEngine(t, "# A\nfoo\n# B\nbar\n")

	f := newTestFrame("A")
	e.Attach(f)

	if f.refreshCount() != 1 {
		t.Fatalf("refreshes = %d, want 1", f.refreshCount())
	}
	if f.lastRefresh() != "foo" {
		t.Errorf("content = %q, want foo", f.lastRefresh())
	}
}

func TestAttachMissingSectionReports(t *testing.T) {
	e, _ := newTestEngine(t, "# A\nfoo\n")

	var missing []string
	e.OnSectionMissing(func(title string) { missing = append(missing, title) })

	f := newTestFrame("B")
	e.Attach(f)

	if f.refreshCount() != 0 {
		t.Error("missing section must not be refreshed")
	}
	if len(missing) != 1 || missing[0] != "B" {
		t.Errorf("missing = %v, want [B]", missing)
	}
}

func TestLocalEditCommits(t *testing.T) {
	e, store := newTestEngine(t, "# A\nfoo\n# B\nbar\n")
	e.Attach(newTestFrame("A"))

	e.SubmitEdit("A", "foo2")
	e.FlushEdits()

	want := "# A\nfoo2\n# B\nbar\n"
	if got := docText(t, store); got != want {
		t.Errorf("document = %q, want %q", got, want)
	}
}

func TestLocalEditLeavesOtherSectionsUntouched(t *testing.T) {
	e, store := newTestEngine(t, "# A\nfoo\n# B\nbar\n")

	before, _ := section.Parse(docText(t, store)).Get("B")

	e.SubmitEdit("A", "foo2")
	e.FlushEdits()

	after, ok := section.Parse(docText(t, store)).Get("B")
	if !ok {
		t.Fatal("section B vanished")
	}
	if after.Start != before.Start {
		t.Errorf("B.Start = %d, want %d (unchanged)", after.Start, before.Start)
	}
	if after.Content() != before.Content() {
		t.Errorf("B content changed: %q", after.Content())
	}
}

func TestLastSectionEditKeepsTerminalNewline(t *testing.T) {
	e, store := newTestEngine(t, "# A\nfoo\n")
	e.Attach(newTestFrame("A"))

	e.SubmitEdit("A", "foo2")
	e.FlushEdits()

	want := "# A\nfoo2\n"
	if got := docText(t, store); got != want {
		t.Errorf("document = %q, want %q", got, want)
	}

	e.SubmitEdit("A", "x\ny")
	e.FlushEdits()

	want = "# A\nx\ny\n"
	if got := docText(t, store); got != want {
		t.Errorf("document = %q, want %q", got, want)
	}
}

func TestUnterminatedDocumentStaysUnterminated(t *testing.T) {
	e, store := newTestEngine(t, "# A\nfoo")

	e.SubmitEdit("A", "foo2")
	e.FlushEdits()

	want := "# A\nfoo2"
	if got := docText(t, store); got != want {
		t.Errorf("document = %q, want %q", got, want)
	}
}

func TestAttachLastSectionContentHasNoTrailingNewline(t *testing.T) {
	e, _ := newTestEngine(t, "# A\nfoo\n# B\nbar\n")

	f := newTestFrame("B")
	e.Attach(f)

	if f.lastRefresh() != "bar" {
		t.Errorf("content = %q, want bar", f.lastRefresh())
	}
}

func TestLocalEditDebounceCoalesces(t *testing.T) {
	e, store := newTestEngine(t, "# A\nfoo\n")

	e.SubmitEdit("A", "first")
	e.SubmitEdit("A", "second")
	e.SubmitEdit("A", "third")

	if e.PendingEdits() != 1 {
		t.Errorf("pending = %d, want 1 (coalesced)", e.PendingEdits())
	}

	e.FlushEdits()
	if got := docText(t, store); !strings.Contains(got, "third") || strings.Contains(got, "second") {
		t.Errorf("last write should win, got %q", got)
	}
}

func TestLocalEditDebounceTimerFires(t *testing.T) {
	store := document.NewMemStore()
	store.Put("doc", "# A\nfoo\n")
	e := New(store, "doc", WithDebounce(10*time.Millisecond), WithCooldown(0))
	defer e.Close()

	e.SubmitEdit("A", "foo2")

	deadline := time.After(2 * time.Second)
	for {
		if text, _ := store.ReadAll(context.Background(), "doc"); strings.Contains(text, "foo2") {
			return
		}
		select {
		case <-deadline:
			t.Fatal("debounced edit never committed")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestEchoSuppression(t *testing.T) {
	// MemStore delivers the change notification synchronously inside the
	// engine's own write call, the hardest case for the guard.
	e, _ := newTestEngine(t, "# A\nfoo\n# B\nbar\n", WithCooldown(time.Hour))

	f := newTestFrame("A")
	e.Attach(f)
	base := f.refreshCount()

	e.SubmitEdit("A", "foo2")
	e.FlushEdits()

	if f.refreshCount() != base {
		t.Errorf("frame refreshed %d times by its own edit's echo", f.refreshCount()-base)
	}
	if !e.Guarding() {
		t.Error("guard should stay up for the cooldown after a write")
	}
}

func TestEchoSuppressionExpires(t *testing.T) {
	e, store := newTestEngine(t, "# A\nfoo\n", WithCooldown(10*time.Millisecond))

	f := newTestFrame("A")
	e.Attach(f)

	e.SubmitEdit("A", "foo2")
	e.FlushEdits()

	deadline := time.After(2 * time.Second)
	for e.Guarding() {
		select {
		case <-deadline:
			t.Fatal("guard never cleared after cooldown")
		case <-time.After(time.Millisecond):
		}
	}

	// With the cooldown over, a genuine external change must flow again.
	_ = store.WriteAll(context.Background(), "doc", "# A\nexternal\n")
	if f.lastRefresh() != "external" {
		t.Errorf("external change after cooldown not delivered, last = %q", f.lastRefresh())
	}
}

func TestExternalChangeRefreshesFrames(t *testing.T) {
	e, store := newTestEngine(t, "# A\nfoo\n# B\nbar\n")

	fa := newTestFrame("A")
	fb := newTestFrame("B")
	e.Attach(fa)
	e.Attach(fb)

	store.Put("doc", "# A\nchanged\n# B\nbar\n")
	store.FireChange("doc")

	if fa.lastRefresh() != "changed" {
		t.Errorf("A = %q, want changed", fa.lastRefresh())
	}
	// B's content is identical; it must not be re-pushed.
	if fb.refreshCount() != 1 {
		t.Errorf("B refreshed %d times, want 1 (attach only)", fb.refreshCount())
	}
}

func TestExternalChangeSectionDisappears(t *testing.T) {
	e, store := newTestEngine(t, "# A\nfoo\n# B\nbar\n")

	var missing []string
	e.OnSectionMissing(func(title string) { missing = append(missing, title) })

	f := newTestFrame("B")
	e.Attach(f)

	store.Put("doc", "# A\nfoo\n")
	store.FireChange("doc")

	if len(missing) != 1 || missing[0] != "B" {
		t.Errorf("missing = %v, want [B]", missing)
	}
	// The frame keeps its old content rather than going blank.
	if f.lastRefresh() != "bar" {
		t.Errorf("frame content = %q, want bar", f.lastRefresh())
	}
}

func TestExternalChangeDeferredWhileEditing(t *testing.T) {
	e, store := newTestEngine(t, "# A\nfoo\n")

	var deferred []string
	e.OnRefreshDeferred(func(title string) { deferred = append(deferred, title) })

	f := newTestFrame("A")
	id := e.Attach(f)
	f.setEditing(true)

	store.Put("doc", "# A\nexternal\n")
	store.FireChange("doc")

	if f.lastRefresh() != "foo" {
		t.Errorf("editing frame was clobbered: %q", f.lastRefresh())
	}
	if len(deferred) != 1 || deferred[0] != "A" {
		t.Errorf("deferred = %v, want [A]", deferred)
	}

	// Editing ends; the host resyncs and the deferred content arrives.
	f.setEditing(false)
	e.ResyncFrame(id)
	if f.lastRefresh() != "external" {
		t.Errorf("resync content = %q, want external", f.lastRefresh())
	}
}

func TestConflictWhenSectionVanishesBeforeCommit(t *testing.T) {
	e, store := newTestEngine(t, "# A\nfoo\n# B\nbar\n")

	var conflicts []*ConflictError
	e.OnConflict(func(err *ConflictError) { conflicts = append(conflicts, err) })

	e.SubmitEdit("A", "foo2")

	// Another actor deletes section A inside the debounce window.
	store.Put("doc", "# B\nbar\n")
	store.FireChange("doc")

	e.FlushEdits()

	if len(conflicts) != 1 {
		t.Fatalf("conflicts = %d, want 1", len(conflicts))
	}
	if conflicts[0].Title != "A" {
		t.Errorf("conflict title = %q", conflicts[0].Title)
	}
	var sm *SectionMissingError
	if !errors.As(conflicts[0], &sm) {
		t.Errorf("conflict should wrap SectionMissingError, got %v", conflicts[0])
	}
	// The aborted write must not have touched the document.
	if got := docText(t, store); got != "# B\nbar\n" {
		t.Errorf("document = %q, aborted write leaked", got)
	}
	if e.Guarding() {
		t.Error("guard must clear after an aborted commit")
	}
}

func TestLineOffsetsReparsedAtCommit(t *testing.T) {
	e, store := newTestEngine(t, "# A\nfoo\n# B\nbar\n")

	e.SubmitEdit("B", "bar2")

	// Section A grows before the commit, shifting B's offsets.
	store.Put("doc", "# A\nfoo\nmore\nlines\n# B\nbar\n")
	store.FireChange("doc")

	e.FlushEdits()

	reg := section.Parse(docText(t, store))
	b, ok := reg.Get("B")
	if !ok {
		t.Fatal("section B lost")
	}
	if b.Content() != "bar2" {
		t.Errorf("B content = %q, want bar2", b.Content())
	}
	a, _ := reg.Get("A")
	if a.Content() != "foo\nmore\nlines" {
		t.Errorf("A content = %q, stale offsets were used", a.Content())
	}
}

func TestNotifyLocalOrigin(t *testing.T) {
	e, store := newTestEngine(t, "# A\nfoo\n", WithCooldown(time.Hour))

	f := newTestFrame("A")
	e.Attach(f)
	base := f.refreshCount()

	// The host writes on its own behalf and flags the origin first.
	e.NotifyLocalOrigin()
	store.Put("doc", "# A\nhost write\n")
	store.FireChange("doc")

	if f.refreshCount() != base {
		t.Error("host-origin change should be suppressed as an echo")
	}
}

func TestCloseDiscardsPendingEdits(t *testing.T) {
	e, store := newTestEngine(t, "# A\nfoo\n")

	e.SubmitEdit("A", "never written")
	e.Close()
	e.FlushEdits()

	if got := docText(t, store); got != "# A\nfoo\n" {
		t.Errorf("document = %q, pending edit leaked after Close", got)
	}
}

func TestDetachStopsRefreshes(t *testing.T) {
	e, store := newTestEngine(t, "# A\nfoo\n")

	f := newTestFrame("A")
	id := e.Attach(f)
	e.Detach(id)

	store.Put("doc", "# A\nchanged\n")
	store.FireChange("doc")

	if f.lastRefresh() != "foo" {
		t.Errorf("detached frame refreshed: %q", f.lastRefresh())
	}
}

// failingStore wraps a MemStore and fails range patches on demand.
type failingStore struct {
	*document.MemStore
	failReplace bool
	unsupported bool
}

func (s *failingStore) ReplaceRange(ctx context.Context, id string, startLine, endLine int, newLines []string) error {
	if s.unsupported {
		return document.ErrRangePatchUnsupported
	}
	if s.failReplace {
		return errors.New("disk full")
	}
	return s.MemStore.ReplaceRange(ctx, id, startLine, endLine, newLines)
}

func TestWriteFailureReportsAndClearsGuard(t *testing.T) {
	store := &failingStore{MemStore: document.NewMemStore(), failReplace: true}
	store.Put("doc", "# A\nfoo\n")
	e := New(store, "doc", WithDebounce(time.Hour), WithCooldown(0))
	defer e.Close()

	var conflicts []*ConflictError
	e.OnConflict(func(err *ConflictError) { conflicts = append(conflicts, err) })

	e.SubmitEdit("A", "foo2")
	e.FlushEdits()

	if len(conflicts) != 1 {
		t.Fatalf("conflicts = %d, want 1", len(conflicts))
	}
	if conflicts[0].Err == nil || !strings.Contains(conflicts[0].Err.Error(), "disk full") {
		t.Errorf("conflict err = %v", conflicts[0].Err)
	}
	if e.Guarding() {
		t.Error("guard must clear even when the write fails")
	}
}

func TestRangePatchFallbackToFullWrite(t *testing.T) {
	store := &failingStore{MemStore: document.NewMemStore(), unsupported: true}
	store.Put("doc", "# A\nfoo\n# B\nbar\n")
	e := New(store, "doc", WithDebounce(time.Hour), WithCooldown(0))
	defer e.Close()

	e.SubmitEdit("A", "foo2")
	e.FlushEdits()

	text, _ := store.ReadAll(context.Background(), "doc")
	if text != "# A\nfoo2\n# B\nbar\n" {
		t.Errorf("fallback write produced %q", text)
	}
}

func TestTwoEnginesAreIndependent(t *testing.T) {
	store := document.NewMemStore()
	store.Put("one", "# A\nfoo\n")
	store.Put("two", "# A\nother\n")

	e1 := New(store, "one", WithDebounce(time.Hour), WithCooldown(time.Hour))
	defer e1.Close()
	e2 := New(store, "two", WithDebounce(time.Hour), WithCooldown(0))
	defer e2.Close()

	f2 := newTestFrame("A")
	e2.Attach(f2)

	// Engine one's guard goes up; engine two must still see changes to
	// its own document.
	e1.SubmitEdit("A", "foo2")
	e1.FlushEdits()
	if !e1.Guarding() {
		t.Fatal("engine one should be in cooldown")
	}

	store.Put("two", "# A\nchanged\n")
	store.FireChange("two")
	if f2.lastRefresh() != "changed" {
		t.Errorf("engine two missed its external change: %q", f2.lastRefresh())
	}
}
