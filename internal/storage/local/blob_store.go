// Package local writes report artifacts to a directory on disk.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Config captures the parameters for the local filesystem blob store.
type Config struct {
	// Dir is the directory artifacts are written under. Relative paths are
	// resolved against the working directory.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// BlobStore writes artifacts to the local filesystem.
type BlobStore struct {
	dir string
}

// New creates the directory if needed and verifies it is writable.
func New(cfg Config) (*BlobStore, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, errors.New("report directory is required")
	}
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve report directory: %w", err)
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(dir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create report directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat report directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("report directory %s is not a directory", dir)
	}

	probe, err := os.CreateTemp(dir, ".writable-*")
	if err != nil {
		return nil, fmt.Errorf("report directory is not writable: %w", err)
	}
	name := probe.Name()
	if err := probe.Close(); err != nil {
		return nil, fmt.Errorf("close probe file: %w", err)
	}
	if err := os.Remove(name); err != nil {
		return nil, fmt.Errorf("remove probe file: %w", err)
	}

	return &BlobStore{dir: dir}, nil
}

// Dir returns the absolute directory artifacts are written to.
func (s *BlobStore) Dir() string {
	return s.dir
}

// PutObject writes the reader's content to path under the store directory
// and returns a file:// URI. Paths escaping the directory are rejected.
func (s *BlobStore) PutObject(_ context.Context, path string, _ string, r io.Reader) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("path is required")
	}

	fullPath := filepath.Clean(filepath.Join(s.dir, path))
	if !strings.HasPrefix(fullPath, s.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes report directory", path)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", fmt.Errorf("create parent directories: %w", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o600); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	return "file://" + fullPath, nil
}
