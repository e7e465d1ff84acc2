// Package vfs provides the file system abstraction used by the document
// store.
//
// Swapping the backend lets every layer above it run against an in-memory
// file system in tests instead of a real disk.
package vfs

import (
	"io/fs"
	"time"
)

// VFS is the minimal file system surface the document store needs.
type VFS interface {
	// ReadFile reads the entire file content.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating it if necessary.
	WriteFile(path string, data []byte, perm fs.FileMode) error

	// Stat returns file information.
	Stat(path string) (FileInfo, error)

	// Abs returns the absolute path.
	Abs(path string) (string, error)

	// Dir returns the directory portion of a path.
	Dir(path string) string

	// Exists returns true if the path exists.
	Exists(path string) bool

	// Remove removes a file.
	Remove(path string) error

	// Rename renames (moves) a file.
	Rename(oldPath, newPath string) error

	// ReadDir lists a directory's entries.
	ReadDir(path string) ([]FileInfo, error)
}

// FileInfo describes a file or directory.
type FileInfo struct {
	path    string
	name    string
	size    int64
	modTime time.Time
	isDir   bool
}

// NewFileInfo creates a FileInfo from the given parameters.
func NewFileInfo(path, name string, size int64, modTime time.Time, isDir bool) FileInfo {
	return FileInfo{path: path, name: name, size: size, modTime: modTime, isDir: isDir}
}

// Path returns the full path of the file.
func (fi FileInfo) Path() string { return fi.path }

// Name returns the base name of the file.
func (fi FileInfo) Name() string { return fi.name }

// Size returns the file size in bytes.
func (fi FileInfo) Size() int64 { return fi.size }

// ModTime returns the modification time.
func (fi FileInfo) ModTime() time.Time { return fi.modTime }

// IsDir returns true for directories.
func (fi FileInfo) IsDir() bool { return fi.isDir }
