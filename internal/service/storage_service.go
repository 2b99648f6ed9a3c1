package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// StorageService is the durable file store behind attachments and proofs.
type StorageService interface {
	// Write persists raw bytes at the given storage path.
	Write(ctx context.Context, path string, data []byte) error

	// Open returns a reader for a previously stored file.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a stored file.
	Delete(ctx context.Context, path string) error

	// Exists reports whether a file is present.
	Exists(ctx context.Context, path string) (bool, error)
}

// LocalStorageService implements StorageService on the local file system.
type LocalStorageService struct {
	basePath string
}

// NewLocalStorageService creates the storage root if needed and returns a
// service rooted there.
func NewLocalStorageService(basePath string) (*LocalStorageService, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	return &LocalStorageService{basePath: absPath}, nil
}

// Write persists data under the storage root.
func (s *LocalStorageService) Write(ctx context.Context, path string, data []byte) error {
	fullPath := filepath.Join(s.basePath, sanitizePath(path))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Open returns the stored file for reading.
func (s *LocalStorageService) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath := filepath.Join(s.basePath, sanitizePath(path))
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file. Deleting a missing file is not an error.
func (s *LocalStorageService) Delete(ctx context.Context, path string) error {
	fullPath := filepath.Join(s.basePath, sanitizePath(path))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists reports whether a file is present under the storage root.
func (s *LocalStorageService) Exists(ctx context.Context, path string) (bool, error) {
	fullPath := filepath.Join(s.basePath, sanitizePath(path))
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// sanitizePath strips traversal elements so stored paths stay inside the root.
func sanitizePath(path string) string {
	cleaned := filepath.Clean(path)
	cleaned = strings.TrimPrefix(cleaned, string(filepath.Separator))
	parts := strings.Split(cleaned, string(filepath.Separator))
	safe := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == ".." || part == "." || part == "" {
			continue
		}
		safe = append(safe, part)
	}
	return filepath.Join(safe...)
}
