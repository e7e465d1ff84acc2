package tui

import "github.com/gdamore/tcell/v2"

// Screen is the subset of tcell.Screen the application draws through.
// tcell's terminal screen and its simulation screen both satisfy it, so
// rendering can be tested without a TTY.
type Screen interface {
	Init() error
	Fini()
	Size() (width, height int)
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Clear()
	Show()
	Sync()
	PollEvent() tcell.Event
	PostEvent(ev tcell.Event) error
}

// NewScreen creates a terminal-backed screen.
func NewScreen() (Screen, error) {
	return tcell.NewScreen()
}

var (
	styleDefault = tcell.StyleDefault
	styleBorder  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleTitle   = tcell.StyleDefault.Bold(true)
	styleStatus  = tcell.StyleDefault.Reverse(true)
	styleMissing = tcell.StyleDefault.Foreground(tcell.ColorRed)
)
