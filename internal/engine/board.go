package engine

import (
	"context"

	"github.com/a198h/agile-board-sub001/internal/layout"
	"github.com/a198h/agile-board-sub001/internal/section"
)

// ValidateBoard checks a layout model against the grid and against the
// current document. A structurally broken model yields a
// *layout.ValidationError; a clean model whose titles are not all present
// yields a *SectionMissingError listing every absent title.
func (e *Engine) ValidateBoard(ctx context.Context, model layout.Model) error {
	res := layout.ValidateWithRows(model, e.rows)
	if err := res.Err(model.Name); err != nil {
		return err
	}

	text, err := e.store.ReadAll(ctx, e.docID)
	if err != nil {
		return err
	}
	if missing := layout.MissingTitles(model, section.Parse(text)); len(missing) > 0 {
		return &SectionMissingError{Titles: missing}
	}
	return nil
}

// EnsureSections appends empty sections for every title the model
// references that the document lacks. The write goes through the guard like
// any other engine write, so it does not bounce back as an external change.
func (e *Engine) EnsureSections(ctx context.Context, model layout.Model) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	text, err := e.store.ReadAll(ctx, e.docID)
	if err != nil {
		return err
	}
	patched, err := section.InsertMissing(text, model.Titles())
	if err != nil {
		return err
	}
	if patched == text {
		return nil
	}

	e.mu.Lock()
	e.setGuardLocked()
	e.mu.Unlock()

	err = e.store.WriteAll(ctx, e.docID, patched)
	e.scheduleGuardClear()
	return err
}
