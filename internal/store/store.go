// Package store persists synthesized audio: a plain artifact store whose
// paths become playback references, and a compressed disk cache that
// survives across runs.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	gap "github.com/muesli/go-app-paths"
)

const appName = "murmur"

// StorageError wraps a filesystem failure with enough context to log.
// Storage failures are degradations, not fatal: callers fall back to
// in-memory audio.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// FSStore keeps artifacts under a single root directory.
type FSStore struct {
	root string
}

// NewFSStore creates the root directory if needed.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &StorageError{Op: "mkdir", Path: root, Err: err}
	}
	return &FSStore{root: root}, nil
}

// Root returns the store's base directory.
func (s *FSStore) Root() string {
	return s.root
}

// FullPath resolves a stored name to its absolute path. The path is a
// valid playback reference whether or not the file exists yet.
func (s *FSStore) FullPath(name string) string {
	return filepath.Join(s.root, name)
}

// Write stores an artifact atomically: temp file first, then rename.
func (s *FSStore) Write(name string, data []byte) error {
	path := s.FullPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &StorageError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &StorageError{Op: "write", Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &StorageError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// Read loads a stored artifact.
func (s *FSStore) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(s.FullPath(name))
	if err != nil {
		return nil, &StorageError{Op: "read", Path: s.FullPath(name), Err: err}
	}
	return data, nil
}

// Remove deletes a stored artifact. Missing files are not an error.
func (s *FSStore) Remove(name string) error {
	err := os.Remove(s.FullPath(name))
	if err != nil && !os.IsNotExist(err) {
		return &StorageError{Op: "remove", Path: s.FullPath(name), Err: err}
	}
	return nil
}

// DefaultDataDir returns the per-user artifact directory.
func DefaultDataDir() (string, error) {
	scope := gap.NewScope(gap.User, appName)
	dirs, err := scope.DataDirs()
	if err == nil && len(dirs) > 0 {
		return dirs[0], nil
	}
	home, herr := os.UserHomeDir()
	if herr != nil {
		return "", fmt.Errorf("locate data dir: %w", herr)
	}
	return filepath.Join(home, "."+appName), nil
}

// DefaultCacheDir returns the per-user synthesis cache directory.
func DefaultCacheDir() (string, error) {
	scope := gap.NewScope(gap.User, appName)
	dir, err := scope.CacheDir()
	if err == nil && dir != "" {
		return dir, nil
	}
	home, herr := os.UserHomeDir()
	if herr != nil {
		return "", fmt.Errorf("locate cache dir: %w", herr)
	}
	return filepath.Join(home, "."+appName, "cache"), nil
}
