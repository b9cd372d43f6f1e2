// Package storage persists the inputs and outputs of the accompaniment
// pipeline: raw files such as piano samples and rendered WAVs through a
// FileStore, and track+beat bundles through a BundleStore.
package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore is a minimal interface for file-oriented storage.
//
// Paths are forward-slash separated and relative to the store root. A missing
// file is reported with an error wrapping fs.ErrNotExist.
type FileStore interface {
	// Read opens the named file for reading. The caller closes it.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write creates or truncates the named file, creating parent directories.
	// The caller must close the returned writer to flush data.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, path string) (bool, error)
}

// Local implements FileStore on top of the local filesystem.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at dir, creating dir if needed.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: abs}, nil
}

// Root returns the absolute directory the store is rooted at.
func (l *Local) Root() string {
	return l.root
}

// Resolve turns a storage path into an absolute filesystem path.
func (l *Local) Resolve(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// Read opens the named file for reading.
func (l *Local) Read(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(l.Resolve(path))
}

// Write opens the named file for writing. The returned writer is an *os.File
// and therefore also an io.WriteSeeker.
func (l *Local) Write(_ context.Context, path string) (io.WriteCloser, error) {
	full := l.Resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	return os.Create(full)
}

// Exists reports whether the named file exists.
func (l *Local) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(l.Resolve(path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
