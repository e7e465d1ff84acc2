// Package layout defines the grid placement model for board frames and its
// validator.
//
// A board is an ordered list of named rectangles on a fixed 24-column grid.
// Validation is pure and deterministic: structural and bounds problems are
// reported per block, and overlapping rectangles are resolved
// first-writer-wins in declaration order, so later blocks lose ties.
package layout

import (
	"fmt"

	"github.com/a198h/agile-board-sub001/internal/section"
)

// Grid dimensions. Columns is fixed; rows default to DefaultRows but can be
// overridden per validation.
const (
	Columns     = 24
	DefaultRows = 100
)

// Block is a named rectangle on the grid. Title must match a section title
// for the block to be renderable.
type Block struct {
	Title string `json:"title"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	W     int    `json:"w"`
	H     int    `json:"h"`
}

// Model is one named arrangement of blocks ("a board"). The block list is
// ordered; order decides collision ties.
type Model struct {
	Name   string
	Blocks []Block
}

// BlockFor returns the first block whose title matches.
func (m Model) BlockFor(title string) (Block, bool) {
	for _, b := range m.Blocks {
		if b.Title == title {
			return b, true
		}
	}
	return Block{}, false
}

// Titles returns the block titles in declaration order.
func (m Model) Titles() []string {
	out := make([]string, len(m.Blocks))
	for i, b := range m.Blocks {
		out[i] = b.Title
	}
	return out
}

// MissingTitles returns the titles the model references that the registry
// lacks, in declaration order.
func MissingTitles(m Model, reg *section.Registry) []string {
	var missing []string
	for _, b := range m.Blocks {
		if !reg.Has(b.Title) {
			missing = append(missing, b.Title)
		}
	}
	return missing
}

// Result is the outcome of validating a model. A model with any error is
// wholly invalid for rendering; the caller may still choose to render only
// the blocks that passed.
type Result struct {
	Valid  bool
	Errors []string

	// ValidBlocks are the blocks that passed structural, bounds, and
	// collision checks, in declaration order.
	ValidBlocks []Block
}

// Validate checks a model against the default grid size.
func Validate(m Model) Result {
	return ValidateWithRows(m, DefaultRows)
}

// ValidateWithRows checks every block structurally, against the grid bounds,
// and for collisions. Blocks that fail structural or bounds checks are
// reported and excluded from collision checking. Collisions are detected by
// marking cells in declaration order; a colliding block's cells are not
// marked, so one bad block cannot cascade into false collisions.
func ValidateWithRows(m Model, rows int) Result {
	if rows <= 0 {
		rows = DefaultRows
	}

	var res Result
	occupied := make([]bool, Columns*rows)

	for i, b := range m.Blocks {
		if msg, ok := checkBlock(m.Name, i, b, rows); !ok {
			res.Errors = append(res.Errors, msg)
			continue
		}

		if cx, cy, collides := firstCollision(occupied, b); collides {
			res.Errors = append(res.Errors, fmt.Sprintf(
				"model %q: block %q (#%d) collides with an earlier block at cell (%d,%d)",
				m.Name, b.Title, i, cx, cy))
			continue
		}

		mark(occupied, b)
		res.ValidBlocks = append(res.ValidBlocks, b)
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// checkBlock runs the structural and bounds checks for one block.
func checkBlock(model string, i int, b Block, rows int) (string, bool) {
	switch {
	case b.Title == "":
		return fmt.Sprintf("model %q: block #%d has an empty title", model, i), false
	case b.X < 0 || b.Y < 0:
		return fmt.Sprintf("model %q: block %q (#%d) has negative position (%d,%d)",
			model, b.Title, i, b.X, b.Y), false
	case b.W <= 0 || b.H <= 0:
		return fmt.Sprintf("model %q: block %q (#%d) has non-positive size %dx%d",
			model, b.Title, i, b.W, b.H), false
	case b.X+b.W > Columns:
		return fmt.Sprintf("model %q: block %q (#%d) exceeds the grid width: x=%d w=%d columns=%d",
			model, b.Title, i, b.X, b.W, Columns), false
	case b.Y+b.H > rows:
		return fmt.Sprintf("model %q: block %q (#%d) exceeds the grid height: y=%d h=%d rows=%d",
			model, b.Title, i, b.Y, b.H, rows), false
	}
	return "", true
}

// firstCollision scans the block's rectangle and returns the first cell that
// is already occupied.
func firstCollision(occupied []bool, b Block) (int, int, bool) {
	for y := b.Y; y < b.Y+b.H; y++ {
		for x := b.X; x < b.X+b.W; x++ {
			if occupied[y*Columns+x] {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}

// mark claims every cell in the block's rectangle.
func mark(occupied []bool, b Block) {
	for y := b.Y; y < b.Y+b.H; y++ {
		for x := b.X; x < b.X+b.W; x++ {
			occupied[y*Columns+x] = true
		}
	}
}
