package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore persists profile values onto the local filesystem, one file per
// key under <base>/<profile>/<key>. It survives restarts, which keeps the
// referral tag and age acknowledgement stable for the lifetime of a browser
// profile cookie.
type FileStore struct {
	basePath string
}

// NewFileStore initializes a FileStore rooted at basePath.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

func (s *FileStore) Get(ctx context.Context, profile, key string) (string, error) {
	fullPath, err := s.path(ctx, profile, key)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("storage: read file: %w", err)
	}
	return string(data), nil
}

// Set writes through a temporary file and renames it so readers never see a
// partially written value.
func (s *FileStore) Set(ctx context.Context, profile, key, value string) error {
	fullPath, err := s.path(ctx, profile, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o700); err != nil {
		return fmt.Errorf("storage: ensure directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return fmt.Errorf("storage: rename file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, profile, key string) error {
	fullPath, err := s.path(ctx, profile, key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete file: %w", err)
	}
	return nil
}

func (s *FileStore) path(ctx context.Context, profile, key string) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateScope(profile, key); err != nil {
		return "", err
	}
	cleanProfile, err := sanitizeSegment(profile)
	if err != nil {
		return "", err
	}
	cleanKey, err := sanitizeSegment(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, cleanProfile, cleanKey), nil
}

// sanitizeSegment accepts a single path segment and rejects anything that
// could escape the storage root.
func sanitizeSegment(segment string) (string, error) {
	segment = strings.TrimSpace(segment)
	if segment == "" || segment == "." || segment == ".." {
		return "", errors.New("storage: invalid key")
	}
	if strings.ContainsAny(segment, `/\`) || strings.HasPrefix(segment, ".") {
		return "", errors.New("storage: invalid key")
	}
	return segment, nil
}

var _ Store = (*FileStore)(nil)
