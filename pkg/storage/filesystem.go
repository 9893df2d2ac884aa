package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrOutsideBase is returned for names that would escape the storage root.
var ErrOutsideBase = errors.New("path escapes storage directory")

// LocalStorage keeps generated files (exports, scheduled backups) under one
// directory on the device.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates the base directory when missing.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Save writes data to name, relative to the base directory, and returns the
// cleaned relative name.
func (s *LocalStorage) Save(name string, data []byte) (string, error) {
	rel, path, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare storage directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("finalise file: %w", err)
	}
	return rel, nil
}

// Read returns the content of a stored file.
func (s *LocalStorage) Read(name string) ([]byte, error) {
	_, path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// Delete removes a stored file. Missing files are ignored.
func (s *LocalStorage) Delete(name string) error {
	_, path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// List returns the relative names of files under dir, sorted.
func (s *LocalStorage) List(dir string) ([]string, error) {
	_, root, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(names)
	return names, nil
}

// CleanupOlderThan removes files under dir last modified before now-ttl and
// returns their relative names.
func (s *LocalStorage) CleanupOlderThan(dir string, ttl time.Duration, now time.Time) ([]string, error) {
	names, err := s.List(dir)
	if err != nil {
		return nil, err
	}
	cutoff := now.Add(-ttl)
	deleted := make([]string, 0)
	for _, name := range names {
		path := filepath.Join(s.baseDir, filepath.FromSlash(name))
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return deleted, fmt.Errorf("stat %s: %w", name, err)
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return deleted, fmt.Errorf("remove %s: %w", name, err)
		}
		deleted = append(deleted, name)
	}
	return deleted, nil
}

// Path returns the on-disk location of name.
func (s *LocalStorage) Path(name string) string {
	_, path, err := s.resolve(name)
	if err != nil {
		return ""
	}
	return path
}

func (s *LocalStorage) resolve(name string) (string, string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("%w: %s", ErrOutsideBase, name)
	}
	return filepath.ToSlash(clean), filepath.Join(s.baseDir, clean), nil
}
