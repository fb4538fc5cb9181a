package cloud

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore is a BlobStore over a local directory, used when no cloud
// backend is configured. Blob ids are file paths inside the directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a file-backed
// blob store.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Find(ctx context.Context, name string) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("stat blob %s: %w", name, err)
	}
	return path, nil
}

func (s *FileStore) Create(ctx context.Context, name string) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create blob %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("create blob %s: %w", name, err)
	}
	return path, nil
}

func (s *FileStore) Read(ctx context.Context, id string) ([]byte, error) {
	data, err := os.ReadFile(id)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

func (s *FileStore) Write(ctx context.Context, id string, data []byte) error {
	if err := os.WriteFile(id, data, 0o644); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	return nil
}
