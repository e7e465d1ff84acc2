package vfs

import (
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemFS implements VFS using an in-memory file system. It is primarily used
// for testing. Paths are cleaned and rooted at "/".
//
// MemFS is safe for concurrent use.
type MemFS struct {
	mu    sync.RWMutex
	files map[string]*memFile
	now   time.Time
}

type memFile struct {
	content []byte
	modTime time.Time
}

// NewMemFS creates a new in-memory file system.
func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string]*memFile), now: time.Unix(1, 0)}
}

// Ensure MemFS implements VFS.
var _ VFS = (*MemFS)(nil)

// tick returns a strictly increasing timestamp so every write observably
// bumps the mod time even within one wall-clock instant.
func (m *MemFS) tick() time.Time {
	m.now = m.now.Add(time.Millisecond)
	return m.now
}

func (m *MemFS) clean(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// ReadFile reads the entire file content.
func (m *MemFS) ReadFile(p string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.files[m.clean(p)]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: p, Err: os.ErrNotExist}
	}
	out := make([]byte, len(f.content))
	copy(out, f.content)
	return out, nil
}

// WriteFile writes data to a file, creating it if necessary.
func (m *MemFS) WriteFile(p string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	content := make([]byte, len(data))
	copy(content, data)
	m.files[m.clean(p)] = &memFile{content: content, modTime: m.tick()}
	return nil
}

// Stat returns file information.
func (m *MemFS) Stat(p string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp := m.clean(p)
	if f, ok := m.files[cp]; ok {
		return NewFileInfo(cp, path.Base(cp), int64(len(f.content)), f.modTime, false), nil
	}
	// Implicit directory: any prefix of an existing file.
	prefix := cp
	if prefix != "/" {
		prefix += "/"
	}
	for name := range m.files {
		if strings.HasPrefix(name, prefix) {
			return NewFileInfo(cp, path.Base(cp), 0, time.Time{}, true), nil
		}
	}
	return FileInfo{}, &fs.PathError{Op: "stat", Path: p, Err: os.ErrNotExist}
}

// Abs returns the absolute path.
func (m *MemFS) Abs(p string) (string, error) {
	return m.clean(p), nil
}

// Dir returns the directory portion of a path.
func (m *MemFS) Dir(p string) string {
	return path.Dir(m.clean(p))
}

// Exists returns true if the path exists.
func (m *MemFS) Exists(p string) bool {
	_, err := m.Stat(p)
	return err == nil
}

// Remove removes a file.
func (m *MemFS) Remove(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := m.clean(p)
	if _, ok := m.files[cp]; !ok {
		return &fs.PathError{Op: "remove", Path: p, Err: os.ErrNotExist}
	}
	delete(m.files, cp)
	return nil
}

// Rename renames (moves) a file.
func (m *MemFS) Rename(oldPath, newPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	op, np := m.clean(oldPath), m.clean(newPath)
	f, ok := m.files[op]
	if !ok {
		return &fs.PathError{Op: "rename", Path: oldPath, Err: os.ErrNotExist}
	}
	delete(m.files, op)
	f.modTime = m.tick()
	m.files[np] = f
	return nil
}

// ReadDir lists a directory's entries.
func (m *MemFS) ReadDir(p string) ([]FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := m.clean(p)
	if prefix != "/" {
		prefix += "/"
	}

	var infos []FileInfo
	seen := make(map[string]bool)
	for name, f := range m.files {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := name[len(prefix):]
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			// Entry inside a subdirectory; report the subdirectory once.
			dir := rest[:i]
			if !seen[dir] {
				seen[dir] = true
				infos = append(infos, NewFileInfo(prefix+dir, dir, 0, time.Time{}, true))
			}
			continue
		}
		infos = append(infos, NewFileInfo(name, rest, int64(len(f.content)), f.modTime, false))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })
	return infos, nil
}
