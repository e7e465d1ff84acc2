package config

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/a198h/agile-board-sub001/internal/document/vfs"
	"github.com/a198h/agile-board-sub001/internal/layout"
)

const boardExt = ".json"

// Boards is a named collection of layout models, keyed by board name.
type Boards map[string]layout.Model

// Lookup returns the model with the given name, or a *BoardError wrapping
// ErrBoardNotFound so the host can name the missing board to the user.
func (b Boards) Lookup(name string) (layout.Model, error) {
	m, ok := b[name]
	if !ok {
		return layout.Model{}, &BoardError{Board: name, Err: ErrBoardNotFound}
	}
	return m, nil
}

// Names returns the board names in no particular order.
func (b Boards) Names() []string {
	out := make([]string, 0, len(b))
	for name := range b {
		out = append(out, name)
	}
	return out
}

// LoadBoards reads every .json file in dir as one board, named after the
// file. A missing directory yields an empty collection; a malformed board
// file is an error naming the board.
func LoadBoards(fsys vfs.VFS, dir string) (Boards, error) {
	boards := make(Boards)
	if !fsys.Exists(dir) {
		return boards, nil
	}

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading boards dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), boardExt) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), boardExt)
		model, err := LoadBoard(fsys, entry.Path(), name)
		if err != nil {
			return nil, err
		}
		boards[name] = model
	}
	return boards, nil
}

// LoadBoard reads a single board file into a model.
func LoadBoard(fsys vfs.VFS, path, name string) (layout.Model, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return layout.Model{}, &BoardError{Board: name, Err: err}
	}
	return parseBoard(name, data)
}

// parseBoard decodes the board JSON. Each block field is pulled and
// type-checked individually so the error can name the block and field.
func parseBoard(name string, data []byte) (layout.Model, error) {
	if !gjson.ValidBytes(data) {
		return layout.Model{}, &BoardError{Board: name, Err: ErrMalformedBoard}
	}

	root := gjson.ParseBytes(data)
	blocksVal := root.Get("blocks")
	if !blocksVal.Exists() || !blocksVal.IsArray() {
		return layout.Model{}, &BoardError{
			Board: name,
			Err:   fmt.Errorf("%w: missing blocks array", ErrMalformedBoard),
		}
	}

	model := layout.Model{Name: name}
	var problems []string
	i := 0
	blocksVal.ForEach(func(_, b gjson.Result) bool {
		block, errs := parseBlock(i, b)
		i++
		if len(errs) > 0 {
			problems = append(problems, errs...)
			return true
		}
		model.Blocks = append(model.Blocks, block)
		return true
	})

	if len(problems) > 0 {
		return layout.Model{}, &BoardError{
			Board: name,
			Err:   fmt.Errorf("%w: %s", ErrMalformedBoard, strings.Join(problems, "; ")),
		}
	}
	return model, nil
}

func parseBlock(i int, b gjson.Result) (layout.Block, []string) {
	var errs []string
	if !b.IsObject() {
		return layout.Block{}, []string{fmt.Sprintf("block #%d is not an object", i)}
	}

	title := b.Get("title")
	if title.Type != gjson.String {
		errs = append(errs, fmt.Sprintf("block #%d: title must be a string", i))
	}

	ints := make(map[string]int, 4)
	for _, field := range []string{"x", "y", "w", "h"} {
		v := b.Get(field)
		if v.Type != gjson.Number || v.Num != float64(int(v.Num)) {
			errs = append(errs, fmt.Sprintf("block #%d: %s must be an integer", i, field))
			continue
		}
		ints[field] = int(v.Num)
	}

	if len(errs) > 0 {
		return layout.Block{}, errs
	}
	return layout.Block{
		Title: title.String(),
		X:     ints["x"],
		Y:     ints["y"],
		W:     ints["w"],
		H:     ints["h"],
	}, nil
}

// DefaultBoard returns a starter three-column board, used when
// scaffolding a new boards directory.
func DefaultBoard(name string) layout.Model {
	return layout.Model{
		Name: name,
		Blocks: []layout.Block{
			{Title: "To Do", X: 0, Y: 0, W: 8, H: 60},
			{Title: "Doing", X: 8, Y: 0, W: 8, H: 60},
			{Title: "Done", X: 16, Y: 0, W: 8, H: 60},
		},
	}
}

// SaveBoard writes a model back as canonical board JSON.
func SaveBoard(fsys vfs.VFS, path string, model layout.Model) error {
	out := `{"blocks":[]}`
	for _, b := range model.Blocks {
		var err error
		out, err = sjson.Set(out, "blocks.-1", map[string]any{
			"title": b.Title,
			"x":     b.X,
			"y":     b.Y,
			"w":     b.W,
			"h":     b.H,
		})
		if err != nil {
			return &BoardError{Board: model.Name, Err: err}
		}
	}
	if err := fsys.WriteFile(path, []byte(out), 0644); err != nil {
		return &BoardError{Board: model.Name, Err: err}
	}
	return nil
}
