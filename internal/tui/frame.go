package tui

import (
	"sync"

	"github.com/a198h/agile-board-sub001/internal/layout"
	"github.com/a198h/agile-board-sub001/internal/section"
)

// BlockFrame is a read-only view bound to one board block. The sync engine
// pushes section content into it through Refresh; the app redraws when that
// happens.
type BlockFrame struct {
	block  layout.Block
	notify func()

	mu      sync.Mutex
	lines   []string
	missing bool
}

// NewBlockFrame creates a frame for the given block. notify is called after
// every content change and must not block.
func NewBlockFrame(block layout.Block, notify func()) *BlockFrame {
	return &BlockFrame{block: block, notify: notify}
}

// Title returns the section title the frame displays.
func (f *BlockFrame) Title() string {
	return f.block.Title
}

// Block returns the frame's grid geometry.
func (f *BlockFrame) Block() layout.Block {
	return f.block
}

// Refresh replaces the displayed content.
func (f *BlockFrame) Refresh(content string) {
	f.mu.Lock()
	f.lines = section.SplitLines(content)
	f.missing = false
	f.mu.Unlock()
	f.notify()
}

// Editing always reports false; frames here never hold local edits.
func (f *BlockFrame) Editing() bool {
	return false
}

// MarkMissing flags the frame's section as absent from the document.
func (f *BlockFrame) MarkMissing() {
	f.mu.Lock()
	f.missing = true
	f.mu.Unlock()
	f.notify()
}

// Lines returns a snapshot of the displayed content.
func (f *BlockFrame) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.lines))
	copy(out, f.lines)
	return out
}

// Missing reports whether the frame's section is absent.
func (f *BlockFrame) Missing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.missing
}
