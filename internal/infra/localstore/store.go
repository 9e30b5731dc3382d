package localstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Store keeps videos on local disk and serves them under /videos when no
// object storage is configured.
type Store struct {
	dir       string
	publicURL string
	logger    *zap.Logger
}

func New(dir, publicURL string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create local store dir: %w", err)
	}
	return &Store{dir: dir, publicURL: strings.TrimRight(publicURL, "/"), logger: logger}, nil
}

func (s *Store) Dir() string { return s.dir }

// UploadVideo copies the file into the store. Nested keys are flattened so
// every stored video lives directly under Dir.
func (s *Store) UploadVideo(ctx context.Context, localPath string, objectKey string) (string, error) {
	name := strings.ReplaceAll(strings.Trim(objectKey, "/"), "/", "_")
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("invalid object key %q", objectKey)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open video: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", fmt.Errorf("copy video: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("store video: %w", err)
	}
	return s.publicURL + "/videos/" + name, nil
}

// Sweep deletes stored videos last modified before now-ttl.
func (s *Store) Sweep(ttl time.Duration) (int, error) {
	return SweepDir(s.dir, ttl, s.logger)
}

// SweepDir deletes .mp4 files in dir last modified before now-ttl.
// Subdirectories are left alone.
func SweepDir(dir string, ttl time.Duration, logger *zap.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read video dir: %w", err)
	}
	cutoff := time.Now().Add(-ttl)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".mp4") {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			logger.Warn("failed to remove expired video", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}
