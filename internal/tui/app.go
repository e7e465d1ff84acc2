package tui

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"

	"github.com/a198h/agile-board-sub001/internal/engine"
	"github.com/a198h/agile-board-sub001/internal/layout"
)

// App drives the terminal dashboard: it attaches one frame per valid block,
// redraws when the engine pushes content, and translates key presses into
// engine operations.
type App struct {
	screen  Screen
	eng     *engine.Engine
	model   layout.Model
	rows    int
	docPath string

	frames   []*BlockFrame
	frameIDs []uuid.UUID
	byTitle  map[string]*BlockFrame

	mu     sync.Mutex
	notice string

	redraw chan struct{}
	models chan layout.Model
	quit   chan struct{}
}

// NewApp builds the dashboard for one board over one document. rows is the
// grid height the board was validated against.
func NewApp(screen Screen, eng *engine.Engine, model layout.Model, rows int, docPath string) *App {
	a := &App{
		screen:  screen,
		eng:     eng,
		rows:    rows,
		docPath: docPath,
		redraw:  make(chan struct{}, 1),
		models:  make(chan layout.Model, 1),
		quit:    make(chan struct{}),
	}
	a.applyModel(model)

	eng.OnSectionMissing(func(title string) {
		a.mu.Lock()
		f := a.byTitle[title]
		a.mu.Unlock()
		if f != nil {
			f.MarkMissing()
		}
		a.setNotice(fmt.Sprintf("section %q missing (press g to create)", title))
	})
	eng.OnConflict(func(err *engine.ConflictError) {
		a.setNotice(err.Error())
	})
	eng.OnRefreshDeferred(func(title string) {
		a.setNotice(fmt.Sprintf("refresh of %q deferred (press r)", title))
	})
	eng.OnError(func(err error) {
		a.setNotice(err.Error())
	})
	return a
}

// applyModel validates the model and rebuilds the frame set from its valid
// blocks. Attachment is the caller's job.
func (a *App) applyModel(model layout.Model) {
	result := layout.ValidateWithRows(model, a.rows)
	frames := make([]*BlockFrame, 0, len(result.ValidBlocks))
	byTitle := make(map[string]*BlockFrame, len(result.ValidBlocks))
	for _, block := range result.ValidBlocks {
		f := NewBlockFrame(block, a.requestRedraw)
		frames = append(frames, f)
		byTitle[block.Title] = f
	}

	a.mu.Lock()
	a.model = model
	a.frames = frames
	a.byTitle = byTitle
	a.mu.Unlock()

	if !result.Valid {
		a.setNotice(fmt.Sprintf("%d block(s) hidden: invalid layout", len(model.Blocks)-len(result.ValidBlocks)))
	}
}

func (a *App) attachFrames() {
	for _, f := range a.frames {
		a.frameIDs = append(a.frameIDs, a.eng.Attach(f))
	}
}

func (a *App) detachFrames() {
	for _, id := range a.frameIDs {
		a.eng.Detach(id)
	}
	a.frameIDs = nil
}

// UpdateModel replaces the displayed board, typically after its file
// changed on disk. Safe to call from any goroutine; the swap happens on
// the run loop. A second update before the swap supersedes the first.
func (a *App) UpdateModel(model layout.Model) {
	select {
	case <-a.models:
	default:
	}
	a.models <- model
}

// swapModel rebinds the dashboard to a new board: old frames detach, the
// new model's valid blocks attach and are filled by the engine.
func (a *App) swapModel(model layout.Model) {
	a.detachFrames()
	a.applyModel(model)
	a.attachFrames()
	a.setNotice(fmt.Sprintf("board %q reloaded", model.Name))
}

// Run attaches the frames and blocks until the user quits or ctx is
// cancelled. The screen must already be initialized; Run leaves it to the
// caller to finalize.
func (a *App) Run(ctx context.Context) error {
	a.attachFrames()
	defer a.detachFrames()

	events := make(chan tcell.Event)
	go func() {
		defer close(events)
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-a.quit:
				return
			}
		}
	}()

	a.draw()
	for {
		select {
		case <-ctx.Done():
			close(a.quit)
			return ctx.Err()
		case <-a.redraw:
			a.draw()
		case m := <-a.models:
			a.swapModel(m)
			a.draw()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if done := a.handleEvent(ctx, ev); done {
				close(a.quit)
				return nil
			}
		}
	}
}

func (a *App) handleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
		a.draw()
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyCtrlC || ev.Key() == tcell.KeyEscape:
			return true
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			return true
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'r':
			for _, id := range a.frameIDs {
				a.eng.ResyncFrame(id)
			}
			a.setNotice("resynced")
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'g':
			if err := a.eng.EnsureSections(ctx, a.model); err != nil {
				a.setNotice(err.Error())
			} else {
				a.setNotice("missing sections created")
			}
		}
	}
	return false
}

func (a *App) requestRedraw() {
	select {
	case a.redraw <- struct{}{}:
	default:
	}
}

func (a *App) setNotice(msg string) {
	a.mu.Lock()
	a.notice = msg
	a.mu.Unlock()
	a.requestRedraw()
}

// draw repaints the whole dashboard.
func (a *App) draw() {
	width, height := a.screen.Size()
	a.screen.Clear()

	body := height - 1
	if body > 0 {
		for _, f := range a.frames {
			a.drawFrame(f, width, body)
		}
	}
	a.drawStatus(width, height)
	a.screen.Show()
}

// drawFrame paints one block: border, title, and clipped content. Grid
// coordinates scale to the available area; blocks that collapse below a
// 2x2 cell rectangle are skipped.
func (a *App) drawFrame(f *BlockFrame, width, height int) {
	b := f.Block()
	x0 := b.X * width / layout.Columns
	x1 := (b.X + b.W) * width / layout.Columns
	y0 := b.Y * height / a.rows
	y1 := (b.Y + b.H) * height / a.rows
	if x1-x0 < 2 || y1-y0 < 2 {
		return
	}

	for x := x0; x < x1; x++ {
		a.screen.SetContent(x, y0, tcell.RuneHLine, nil, styleBorder)
		a.screen.SetContent(x, y1-1, tcell.RuneHLine, nil, styleBorder)
	}
	for y := y0; y < y1; y++ {
		a.screen.SetContent(x0, y, tcell.RuneVLine, nil, styleBorder)
		a.screen.SetContent(x1-1, y, tcell.RuneVLine, nil, styleBorder)
	}
	a.screen.SetContent(x0, y0, tcell.RuneULCorner, nil, styleBorder)
	a.screen.SetContent(x1-1, y0, tcell.RuneURCorner, nil, styleBorder)
	a.screen.SetContent(x0, y1-1, tcell.RuneLLCorner, nil, styleBorder)
	a.screen.SetContent(x1-1, y1-1, tcell.RuneLRCorner, nil, styleBorder)

	titleStyle := styleTitle
	if f.Missing() {
		titleStyle = styleMissing
	}
	a.drawText(x0+1, y0, x1-1, f.Title(), titleStyle)

	innerTop, innerBottom := y0+1, y1-1
	lines := f.Lines()
	for i, line := range lines {
		y := innerTop + i
		if y >= innerBottom {
			break
		}
		a.drawText(x0+1, y, x1-1, line, styleDefault)
	}
}

func (a *App) drawStatus(width, height int) {
	if height < 1 {
		return
	}
	a.mu.Lock()
	notice := a.notice
	a.mu.Unlock()

	status := fmt.Sprintf(" %s | board: %s", a.docPath, a.model.Name)
	if notice != "" {
		status += " | " + notice
	}
	y := height - 1
	for x := 0; x < width; x++ {
		a.screen.SetContent(x, y, ' ', nil, styleStatus)
	}
	a.drawText(0, y, width, status, styleStatus)
}

func (a *App) drawText(x0, y, x1 int, text string, style tcell.Style) {
	x := x0
	for _, r := range text {
		if x >= x1 {
			return
		}
		a.screen.SetContent(x, y, r, nil, style)
		x++
	}
}
