package audiostore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"AIAvatar/pkg/logger"
)

// LocalStore keeps audio files in a directory on disk. The reference is the
// bare file name, so the store directory can be relocated without rewriting
// the answer store.
type LocalStore struct {
	log *logger.Logger
	dir string
}

// NewLocalStore creates the directory if needed.
func NewLocalStore(dir string, log *logger.Logger) (*LocalStore, error) {
	if dir == "" {
		dir = "static/audio"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory '%s': %w", dir, err)
	}
	return &LocalStore{log: log, dir: dir}, nil
}

// Put writes the blob under name and returns name as the reference.
func (s *LocalStore) Put(_ context.Context, name string, data []byte) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write audio file '%s': %w", path, err)
	}
	return name, nil
}

// Get reads the blob for a reference produced by Put.
func (s *LocalStore) Get(_ context.Context, ref string) ([]byte, error) {
	if err := validName(ref); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, ref))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file '%s': %w", ref, err)
	}
	return data, nil
}

// validName rejects references that could escape the store directory.
func validName(name string) error {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return fmt.Errorf("invalid audio reference %q", name)
	}
	return nil
}

var _ Store = (*LocalStore)(nil)
