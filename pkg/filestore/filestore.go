// Package filestore implements kv.Store as one file per key inside a
// directory, e.g. ~/.swa/store.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"swa/pkg/kv"
)

// Config defines where the files live.
type Config struct {
	// Dir is created if it does not exist.
	Dir string
}

// Storage satisfies kv.Store using plain files.
type Storage struct {
	dir string
}

// makePaths will make sure the given directory exists, if not, it will be created
func makePaths(path string) error {
	return os.MkdirAll(path, 0o700)
}

// Init configures the storage directory.
func (s *Storage) Init(_ context.Context, param any) error {
	cfg, ok := param.(Config)
	if !ok {
		if p, ok := param.(*Config); ok && p != nil {
			cfg = *p
		} else {
			return fmt.Errorf("filestore: unexpected config type %T", param)
		}
	}
	if cfg.Dir == "" {
		return errors.New("filestore: Dir is required")
	}
	if err := makePaths(cfg.Dir); err != nil {
		return fmt.Errorf("filestore: create dir: %w", err)
	}
	s.dir = cfg.Dir
	return nil
}

// Close is a no-op.
func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: read: %w", err)
	}
	return data, nil
}

// Set writes through a temp file and rename so readers never see a torn value.
func (s *Storage) Set(_ context.Context, key string, value []byte) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	if key == "" {
		return kv.ErrEmptyKey
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("filestore: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("filestore: write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("filestore: chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filestore: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("filestore: rename: %w", err)
	}
	return nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return kv.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("filestore: remove: %w", err)
	}
	return nil
}

func (s *Storage) Keys(_ context.Context, prefix string) ([]string, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("filestore: read dir: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".tmp-") {
			continue
		}
		key, err := url.PathUnescape(e.Name())
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// path maps a key to a single file name inside the directory.
func (s *Storage) path(key string) string {
	name := url.PathEscape(key)
	if name == "." || name == ".." {
		name = strings.ReplaceAll(name, ".", "%2E")
	}
	return filepath.Join(s.dir, name)
}

func (s *Storage) ensureDir() error {
	if s.dir == "" {
		return errors.New("filestore: storage not initialized")
	}
	return nil
}

// Ensure Storage implements Store interface.
var _ kv.Store = (*Storage)(nil)
