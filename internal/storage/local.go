package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore writes artifacts under a directory on disk. It cannot mint
// external URLs; the API serves these artifacts through its signed view
// route instead.
type LocalStore struct {
	dir string
}

// NewLocal creates the base directory if needed.
func NewLocal(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) path(objectKey string) (string, error) {
	clean := filepath.Clean(objectKey)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object key %q", objectKey)
	}
	return filepath.Join(s.dir, clean), nil
}

// Put writes the artifact, creating intermediate directories.
func (s *LocalStore) Put(_ context.Context, objectKey string, data []byte) error {
	path, err := s.path(objectKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	return nil
}

// Get reads the artifact bytes back.
func (s *LocalStore) Get(_ context.Context, objectKey string) ([]byte, error) {
	path, err := s.path(objectKey)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}

// PresignDownload reports that local storage has no presigning capability.
func (s *LocalStore) PresignDownload(context.Context, string, time.Duration) (string, bool, error) {
	return "", false, nil
}
