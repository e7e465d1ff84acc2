package config

import (
	"testing"
	"time"

	"github.com/a198h/agile-board-sub001/internal/document/vfs"
)

func TestLoadSettingsMissingFileYieldsDefaults(t *testing.T) {
	fsys := vfs.NewMemFS()
	s, err := LoadSettings(fsys, "/settings.toml")
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s != DefaultSettings() {
		t.Errorf("settings = %+v, want defaults %+v", s, DefaultSettings())
	}
}

func TestLoadSettingsOverrides(t *testing.T) {
	fsys := vfs.NewMemFS()
	data := []byte("debounce_ms = 500\ncooldown_ms = 50\nrows = 40\nboards_dir = \"layouts\"\n")
	if err := fsys.WriteFile("/settings.toml", data, 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s, err := LoadSettings(fsys, "/settings.toml")
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.Debounce() != 500*time.Millisecond {
		t.Errorf("Debounce() = %v, want 500ms", s.Debounce())
	}
	if s.Cooldown() != 50*time.Millisecond {
		t.Errorf("Cooldown() = %v, want 50ms", s.Cooldown())
	}
	if s.Rows != 40 {
		t.Errorf("Rows = %d, want 40", s.Rows)
	}
	if s.BoardsDir != "layouts" {
		t.Errorf("BoardsDir = %q, want %q", s.BoardsDir, "layouts")
	}
}

func TestLoadSettingsPartialFileKeepsDefaults(t *testing.T) {
	fsys := vfs.NewMemFS()
	if err := fsys.WriteFile("/settings.toml", []byte("rows = 60\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s, err := LoadSettings(fsys, "/settings.toml")
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.Rows != 60 {
		t.Errorf("Rows = %d, want 60", s.Rows)
	}
	def := DefaultSettings()
	if s.DebounceMs != def.DebounceMs || s.CooldownMs != def.CooldownMs {
		t.Errorf("unset fields changed: %+v", s)
	}
}

func TestLoadSettingsRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not toml", "debounce_ms = [[[\n"},
		{"zero debounce", "debounce_ms = 0\n"},
		{"negative cooldown", "cooldown_ms = -1\n"},
		{"zero rows", "rows = 0\n"},
		{"empty boards dir", "boards_dir = \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := vfs.NewMemFS()
			if err := fsys.WriteFile("/settings.toml", []byte(tt.data), 0644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			s, err := LoadSettings(fsys, "/settings.toml")
			if err == nil {
				t.Fatalf("LoadSettings() error = nil, want error")
			}
			if s != DefaultSettings() {
				t.Errorf("settings on error = %+v, want defaults", s)
			}
		})
	}
}

func TestEngineOptionsCount(t *testing.T) {
	if got := len(DefaultSettings().EngineOptions()); got != 3 {
		t.Errorf("EngineOptions() length = %d, want 3", got)
	}
}
