// Package main is the entry point for the agileboard dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/a198h/agile-board-sub001/internal/config"
	"github.com/a198h/agile-board-sub001/internal/document"
	"github.com/a198h/agile-board-sub001/internal/document/vfs"
	"github.com/a198h/agile-board-sub001/internal/document/watcher"
	"github.com/a198h/agile-board-sub001/internal/engine"
	"github.com/a198h/agile-board-sub001/internal/layout"
	"github.com/a198h/agile-board-sub001/internal/tui"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	configPath string
	boardName  string
	docPath    string
	listBoards bool
	initBoard  bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()
	fsys := vfs.NewOSFS()

	settings, err := config.LoadSettings(fsys, opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if opts.initBoard {
		return initBoard(fsys, settings, opts.boardName)
	}

	boards, err := config.LoadBoards(fsys, settings.BoardsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.listBoards {
		for _, name := range boards.Names() {
			fmt.Println(name)
		}
		return 0
	}

	model, err := boards.Lookup(opts.boardName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	result := layout.ValidateWithRows(model, settings.Rows)
	for _, problem := range result.Errors {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", problem)
	}
	if len(result.ValidBlocks) == 0 {
		fmt.Fprintf(os.Stderr, "Error: board %q has no renderable blocks\n", opts.boardName)
		return 1
	}

	docPath, err := filepath.Abs(opts.docPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	store, err := document.NewOSFileStore(settings.Debounce())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create document store: %v\n", err)
		return 1
	}
	defer store.Close()

	eng := engine.New(store, docPath, settings.EngineOptions()...)
	defer eng.Close()

	reloader, err := newBoardReloader(fsys, settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: board reload disabled: %v\n", err)
	} else {
		defer reloader.Close()
	}

	screen, err := tui.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create screen: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize screen: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := tui.NewApp(screen, eng, model, settings.Rows, docPath)
	if reloader != nil {
		reloader.OnReload(func(b config.Boards) {
			if m, err := b.Lookup(opts.boardName); err == nil {
				app.UpdateModel(m)
			}
		})
	}
	err = app.Run(ctx)
	screen.Fini()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// initBoard scaffolds the boards directory with a starter board file.
func initBoard(fsys vfs.VFS, settings config.Settings, name string) int {
	if err := os.MkdirAll(settings.BoardsDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	path := filepath.Join(settings.BoardsDir, name+".json")
	if fsys.Exists(path) {
		fmt.Fprintf(os.Stderr, "Error: %s already exists\n", path)
		return 1
	}
	if err := config.SaveBoard(fsys, path, config.DefaultBoard(name)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("created %s\n", path)
	return 0
}

// newBoardReloader watches the boards directory so an edited board file
// takes effect without restarting.
func newBoardReloader(fsys vfs.VFS, settings config.Settings) (*config.Reloader, error) {
	w, err := watcher.NewFSNotifyWatcher()
	if err != nil {
		return nil, err
	}
	debounced := watcher.NewDebounced(w, settings.Debounce())
	r, err := config.NewReloader(fsys, settings.BoardsDir, debounced)
	if err != nil {
		_ = debounced.Close()
		return nil, err
	}
	return r, nil
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "agileboard.toml", "Path to settings file")
	flag.StringVar(&opts.configPath, "c", "agileboard.toml", "Path to settings file (shorthand)")
	flag.StringVar(&opts.boardName, "board", "", "Board to display")
	flag.StringVar(&opts.boardName, "b", "", "Board to display (shorthand)")
	flag.BoolVar(&opts.listBoards, "list", false, "List available boards and exit")
	flag.BoolVar(&opts.initBoard, "init", false, "Create a starter board file and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "agileboard - section dashboard for markdown documents\n\n")
		fmt.Fprintf(os.Stderr, "Usage: agileboard -board NAME [options] document.md\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys:\n")
		fmt.Fprintf(os.Stderr, "  q        quit\n")
		fmt.Fprintf(os.Stderr, "  r        resync all frames from the document\n")
		fmt.Fprintf(os.Stderr, "  g        create missing sections\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("agileboard %s (%s)\n", version, commit)
		os.Exit(0)
	}
	if opts.listBoards {
		return opts
	}

	if opts.boardName == "" {
		fmt.Fprintln(os.Stderr, "Error: -board is required")
		flag.Usage()
		os.Exit(2)
	}
	if opts.initBoard {
		return opts
	}
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one document path is required")
		flag.Usage()
		os.Exit(2)
	}
	opts.docPath = flag.Arg(0)
	return opts
}
