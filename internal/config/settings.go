package config

import (
	"fmt"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/a198h/agile-board-sub001/internal/document/vfs"
	"github.com/a198h/agile-board-sub001/internal/engine"
)

// Settings are the host-tunable engine parameters.
type Settings struct {
	// DebounceMs is the quiet period after a local edit before committing.
	DebounceMs int `toml:"debounce_ms"`

	// CooldownMs is how long the echo guard stays set after a write.
	CooldownMs int `toml:"cooldown_ms"`

	// Rows is the grid height used when validating boards.
	Rows int `toml:"rows"`

	// BoardsDir is where board JSON files live.
	BoardsDir string `toml:"boards_dir"`
}

// DefaultSettings returns the settings used when no file is present.
func DefaultSettings() Settings {
	return Settings{
		DebounceMs: int(engine.DefaultDebounce / time.Millisecond),
		CooldownMs: int(engine.DefaultCooldown / time.Millisecond),
		Rows:       100,
		BoardsDir:  "boards",
	}
}

// LoadSettings reads a TOML settings file. A missing file yields the
// defaults without an error; a present but unparsable or out-of-range file
// is an error.
func LoadSettings(fsys vfs.VFS, path string) (Settings, error) {
	s := DefaultSettings()
	if !fsys.Exists(path) {
		return s, nil
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("reading settings %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("parsing settings %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return DefaultSettings(), fmt.Errorf("settings %s: %w", path, err)
	}
	return s, nil
}

func (s Settings) validate() error {
	switch {
	case s.DebounceMs <= 0:
		return fmt.Errorf("debounce_ms must be positive, got %d", s.DebounceMs)
	case s.CooldownMs < 0:
		return fmt.Errorf("cooldown_ms must not be negative, got %d", s.CooldownMs)
	case s.Rows <= 0:
		return fmt.Errorf("rows must be positive, got %d", s.Rows)
	case s.BoardsDir == "":
		return fmt.Errorf("boards_dir must not be empty")
	}
	return nil
}

// Debounce returns the debounce window as a duration.
func (s Settings) Debounce() time.Duration {
	return time.Duration(s.DebounceMs) * time.Millisecond
}

// Cooldown returns the echo-guard cooldown as a duration.
func (s Settings) Cooldown() time.Duration {
	return time.Duration(s.CooldownMs) * time.Millisecond
}

// EngineOptions converts the settings into engine options.
func (s Settings) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithDebounce(s.Debounce()),
		engine.WithCooldown(s.Cooldown()),
		engine.WithRows(s.Rows),
	}
}
