package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/a198h/agile-board-sub001/internal/document"
	"github.com/a198h/agile-board-sub001/internal/section"
)

// Engine synchronizes one document with its attached frames.
type Engine struct {
	store document.Store
	docID string

	debounce time.Duration
	cooldown time.Duration
	rows     int

	// writeMu serializes the commit path so there is exactly one writer
	// task at a time for the document.
	writeMu sync.Mutex

	mu      sync.Mutex
	frames  map[uuid.UUID]*frameBinding
	pending map[string]*pendingEdit
	guard   guard
	unsub   func()
	closed  bool

	onSectionMissing []func(title string)
	onConflict       []func(*ConflictError)
	onDeferred       []func(title string)
	onError          []func(error)
}

// pendingEdit is a debounced local edit; only the last content within the
// window is committed.
type pendingEdit struct {
	content string
	timer   *time.Timer
}

// guard is the re-entrancy flag that marks the engine's own writes so their
// change notifications are recognized as echoes.
type guard struct {
	applying bool
	timer    *time.Timer
}

// New creates an engine bound to one document and subscribes it to the
// store's change notifications.
func New(store document.Store, docID string, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		docID:    docID,
		debounce: DefaultDebounce,
		cooldown: DefaultCooldown,
		frames:   make(map[uuid.UUID]*frameBinding),
		pending:  make(map[string]*pendingEdit),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.unsub = store.Subscribe(docID, e.handleChange)
	return e
}

// DocID returns the identifier of the document this engine owns.
func (e *Engine) DocID() string {
	return e.docID
}

// Attach registers a frame and pushes the current content of its section.
// A frame whose section does not exist is still attached; the condition is
// reported and the frame is refreshed as soon as the section appears.
func (e *Engine) Attach(f Frame) uuid.UUID {
	b := &frameBinding{id: uuid.New(), frame: f}

	e.mu.Lock()
	e.frames[b.id] = b
	e.mu.Unlock()

	text, err := e.store.ReadAll(context.Background(), e.docID)
	if err != nil {
		e.reportError(err)
		return b.id
	}
	sec, ok := section.Parse(text).Get(f.Title())
	if !ok {
		e.reportSectionMissing(f.Title())
		return b.id
	}

	content := sec.Content()
	f.Refresh(content)
	e.mu.Lock()
	b.lastContent = content
	e.mu.Unlock()
	return b.id
}

// Detach removes a frame. Pending edits for its section are left alone;
// another frame may still be bound to the same title.
func (e *Engine) Detach(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.frames, id)
}

// SubmitEdit records new content for a section from a local edit. The
// commit happens after the debounce window; rapid successive submissions
// for the same title are coalesced, last write wins.
func (e *Engine) SubmitEdit(title, content string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	if p, ok := e.pending[title]; ok {
		p.content = content
		p.timer.Reset(e.debounce)
		return
	}
	p := &pendingEdit{content: content}
	p.timer = time.AfterFunc(e.debounce, func() {
		e.commit(title)
	})
	e.pending[title] = p
}

// FlushEdits commits every pending debounced edit immediately.
func (e *Engine) FlushEdits() {
	e.mu.Lock()
	titles := make([]string, 0, len(e.pending))
	for title, p := range e.pending {
		p.timer.Stop()
		titles = append(titles, title)
	}
	e.mu.Unlock()

	for _, title := range titles {
		e.commit(title)
	}
}

// PendingEdits returns the number of debounced edits not yet committed.
func (e *Engine) PendingEdits() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// NotifyLocalOrigin marks the next change notification for the document as
// locally caused. Hosts whose notification channel cannot distinguish their
// own writes call this just before writing.
func (e *Engine) NotifyLocalOrigin() {
	e.mu.Lock()
	e.setGuardLocked()
	e.mu.Unlock()
	e.scheduleGuardClear()
}

// Guarding reports whether the engine is currently suppressing change
// notifications as echoes of its own write.
func (e *Engine) Guarding() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.guard.applying
}

// ResyncFrame re-reads the document and pushes the frame's section content
// regardless of earlier deferrals. Hosts call it when a frame leaves
// editing mode.
func (e *Engine) ResyncFrame(id uuid.UUID) {
	e.mu.Lock()
	b, ok := e.frames[id]
	e.mu.Unlock()
	if !ok {
		return
	}

	text, err := e.store.ReadAll(context.Background(), e.docID)
	if err != nil {
		e.reportError(err)
		return
	}
	sec, found := section.Parse(text).Get(b.frame.Title())
	if !found {
		e.reportSectionMissing(b.frame.Title())
		return
	}

	content := sec.Content()
	e.mu.Lock()
	changed := b.lastContent != content
	b.lastContent = content
	b.deferred = false
	e.mu.Unlock()
	if changed {
		b.frame.Refresh(content)
	}
}

// Close tears the engine down: pending edits are discarded, the guard
// timer stopped, and the store subscription removed.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for title, p := range e.pending {
		p.timer.Stop()
		delete(e.pending, title)
	}
	if e.guard.timer != nil {
		e.guard.timer.Stop()
	}
	e.guard.applying = false
	unsub := e.unsub
	e.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Handler registration, filestore style: slices copied before invocation.

// OnSectionMissing registers a handler for frames or boards that reference
// a title absent from the document.
func (e *Engine) OnSectionMissing(handler func(title string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onSectionMissing = append(e.onSectionMissing, handler)
}

// OnConflict registers a handler for aborted local writes.
func (e *Engine) OnConflict(handler func(*ConflictError)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onConflict = append(e.onConflict, handler)
}

// OnRefreshDeferred registers a handler called when an external change was
// not pushed to a frame because the frame was being edited.
func (e *Engine) OnRefreshDeferred(handler func(title string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onDeferred = append(e.onDeferred, handler)
}

// OnError registers a handler for I/O errors on the sync paths.
func (e *Engine) OnError(handler func(error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onError = append(e.onError, handler)
}

// commit applies the pending edit for title against a fresh parse of the
// current document text.
func (e *Engine) commit(title string) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	p, ok := e.pending[title]
	if !ok {
		e.mu.Unlock()
		return
	}
	delete(e.pending, title)
	content := p.content
	// The guard goes up before the write so the notification the write
	// triggers is recognized as an echo.
	e.setGuardLocked()
	e.mu.Unlock()

	ctx := context.Background()
	text, err := e.store.ReadAll(ctx, e.docID)
	if err != nil {
		e.clearGuardNow()
		e.reportConflict(&ConflictError{Title: title, Err: err})
		return
	}

	// Line offsets may have shifted since the frame was refreshed; only
	// the live parse decides where the section is now.
	sec, found := section.Parse(text).Get(title)
	if !found {
		e.clearGuardNow()
		e.reportConflict(&ConflictError{Title: title, Err: &SectionMissingError{Titles: []string{title}}})
		return
	}

	newLines := section.SplitLines(content)
	err = e.store.ReplaceRange(ctx, e.docID, sec.Start+1, sec.End, newLines)
	if errors.Is(err, document.ErrRangePatchUnsupported) {
		var patched string
		patched, err = document.SpliceLines(text, sec.Start+1, sec.End, newLines)
		if err == nil {
			err = e.store.WriteAll(ctx, e.docID, patched)
		}
	}

	// The guard must always come down, even when the write failed, or
	// every future sync would be swallowed as an echo.
	e.scheduleGuardClear()

	if err != nil {
		e.reportConflict(&ConflictError{Title: title, Err: err})
		return
	}

	e.mu.Lock()
	for _, b := range e.frames {
		if b.frame.Title() == title {
			b.lastContent = content
			b.deferred = false
		}
	}
	e.mu.Unlock()
}

// handleChange is the external-change path: re-parse and fan out.
func (e *Engine) handleChange(document.ChangeEvent) {
	e.mu.Lock()
	if e.closed || e.guard.applying {
		// Echo of our own write, or teardown.
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	text, err := e.store.ReadAll(context.Background(), e.docID)
	if err != nil {
		e.reportError(err)
		return
	}
	reg := section.Parse(text)

	e.mu.Lock()
	bindings := make([]*frameBinding, 0, len(e.frames))
	for _, b := range e.frames {
		bindings = append(bindings, b)
	}
	e.mu.Unlock()

	for _, b := range bindings {
		title := b.frame.Title()
		sec, found := reg.Get(title)
		if !found {
			e.reportSectionMissing(title)
			continue
		}

		content := sec.Content()
		e.mu.Lock()
		unchanged := b.lastContent == content
		e.mu.Unlock()
		if unchanged {
			continue
		}

		if b.frame.Editing() {
			// Never clobber in-flight typing; the host resyncs when
			// editing ends.
			e.mu.Lock()
			b.deferred = true
			e.mu.Unlock()
			e.reportDeferred(title)
			continue
		}

		b.frame.Refresh(content)
		e.mu.Lock()
		b.lastContent = content
		b.deferred = false
		e.mu.Unlock()
	}
}

func (e *Engine) setGuardLocked() {
	if e.guard.timer != nil {
		e.guard.timer.Stop()
		e.guard.timer = nil
	}
	e.guard.applying = true
}

func (e *Engine) clearGuardNow() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.guard.timer != nil {
		e.guard.timer.Stop()
		e.guard.timer = nil
	}
	e.guard.applying = false
}

// scheduleGuardClear keeps the guard up for the cooldown, absorbing the
// asynchronous round-trip of the store's change notification.
func (e *Engine) scheduleGuardClear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.guard.timer != nil {
		e.guard.timer.Stop()
	}
	if e.cooldown == 0 {
		e.guard.applying = false
		e.guard.timer = nil
		return
	}
	e.guard.timer = time.AfterFunc(e.cooldown, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.guard.applying = false
		e.guard.timer = nil
	})
}

func (e *Engine) reportSectionMissing(title string) {
	e.mu.Lock()
	handlers := make([]func(string), len(e.onSectionMissing))
	copy(handlers, e.onSectionMissing)
	e.mu.Unlock()
	for _, h := range handlers {
		h(title)
	}
}

func (e *Engine) reportConflict(err *ConflictError) {
	e.mu.Lock()
	handlers := make([]func(*ConflictError), len(e.onConflict))
	copy(handlers, e.onConflict)
	e.mu.Unlock()
	for _, h := range handlers {
		h(err)
	}
}

func (e *Engine) reportDeferred(title string) {
	e.mu.Lock()
	handlers := make([]func(string), len(e.onDeferred))
	copy(handlers, e.onDeferred)
	e.mu.Unlock()
	for _, h := range handlers {
		h(title)
	}
}

func (e *Engine) reportError(err error) {
	e.mu.Lock()
	handlers := make([]func(error), len(e.onError))
	copy(handlers, e.onError)
	e.mu.Unlock()
	for _, h := range handlers {
		h(err)
	}
}
