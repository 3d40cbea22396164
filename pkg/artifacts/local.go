// Package artifacts stores rendered schedule files on the local filesystem.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes artifacts into a directory. The returned file id is the file name.
type LocalStore struct {
	Dir string
}

// NewLocalStore creates the directory if needed
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("artifact directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &LocalStore{Dir: dir}, nil
}

// Put writes data under name, replacing any previous file of the same name
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}

	path := filepath.Join(s.Dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return name, nil
}

// Path returns where a stored artifact lives
func (s *LocalStore) Path(fileID string) string {
	return filepath.Join(s.Dir, fileID)
}
